package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mssentry/mssentry/model"
	"github.com/mssentry/mssentry/repo"
	"github.com/mssentry/mssentry/validate"
)

type MembershipService struct {
	d *Deps
}

func Memberships(d *Deps) *MembershipService {
	return &MembershipService{d: d}
}

// Assign adds the principal to the role. An already-active edge is a
// conflict and performs no remote mutation; a revoked edge is
// reactivated rather than duplicated.
func (s *MembershipService) Assign(ctx context.Context, actor string, scope model.RoleScope, database, roleName, principal string) (*model.Membership, error) {
	target := principal + "->" + roleName
	rec := s.d.begin(ctx, model.OpAssign, model.ResourceMembership, target, database, actor)

	if err := validate.Name(roleName); err != nil {
		return nil, rec.fail(ctx, err)
	}
	if err := validate.Name(principal); err != nil {
		return nil, rec.fail(ctx, err)
	}

	// assigning members to built-in roles is legitimate; only create
	// and delete are protected
	if _, err := s.d.Roles.FetchRole(ctx, scope, database, roleName); err != nil {
		return nil, rec.fail(ctx, fmt.Errorf("role %q: %w", roleName, err))
	}

	ok, err := s.principalExists(ctx, scope, database, principal)
	if err != nil {
		return nil, rec.fail(ctx, err)
	}
	if !ok {
		return nil, rec.fail(ctx, fmt.Errorf("principal %q: %w", principal, model.ErrNotFound))
	}

	tx := s.d.Store.Txn(true)
	defer tx.Abort()
	membershipRepo := repo.NewMembershipRepository(tx)

	edge, err := membershipRepo.GetEdge(principal, roleName, database)
	if err != nil && err != model.ErrNotFound {
		return nil, rec.fail(ctx, err)
	}
	if edge != nil && edge.Active() {
		return nil, rec.fail(ctx, fmt.Errorf("membership %s: %w", target, model.ErrAlreadyExists))
	}

	if err := s.d.Roles.AddMember(ctx, scope, database, roleName, principal); err != nil {
		return nil, rec.fail(ctx, err)
	}

	if edge == nil {
		edge = &model.Membership{
			UUID:      uuid.NewString(),
			RoleName:  roleName,
			RoleScope: scope,
			Database:  database,
			Principal: principal,
		}
	} else {
		cp := *edge
		edge = &cp
	}
	edge.State = model.MembershipActive
	edge.GrantedAt = now()
	edge.GrantedBy = actor
	edge.RevokedAt = 0
	edge.RevokedBy = ""
	edge.RevokeReason = ""

	if err := membershipRepo.Put(edge); err != nil {
		return nil, rec.fail(ctx, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, rec.fail(ctx, err)
	}

	rec.succeed(ctx, "")
	return edge, nil
}

// Remove revokes the principal's membership. The edge row is kept in
// the revoked state so a later Assign reactivates it.
func (s *MembershipService) Remove(ctx context.Context, actor string, scope model.RoleScope, database, roleName, principal, reason string) (*model.Membership, error) {
	target := principal + "->" + roleName
	rec := s.d.begin(ctx, model.OpRemove, model.ResourceMembership, target, database, actor)

	if err := validate.Name(roleName); err != nil {
		return nil, rec.fail(ctx, err)
	}
	if err := validate.Name(principal); err != nil {
		return nil, rec.fail(ctx, err)
	}

	tx := s.d.Store.Txn(true)
	defer tx.Abort()
	membershipRepo := repo.NewMembershipRepository(tx)

	edge, err := membershipRepo.GetEdge(principal, roleName, database)
	if err != nil {
		return nil, rec.fail(ctx, fmt.Errorf("membership %s: %w", target, err))
	}
	if !edge.Active() {
		return nil, rec.fail(ctx, fmt.Errorf("membership %s: %w", target, model.ErrAlreadyRevoked))
	}

	if err := s.d.Roles.RemoveMember(ctx, scope, database, roleName, principal); err != nil {
		return nil, rec.fail(ctx, err)
	}

	cp := *edge
	cp.State = model.MembershipRevoked
	cp.RevokedAt = now()
	cp.RevokedBy = actor
	cp.RevokeReason = reason

	if err := membershipRepo.Put(&cp); err != nil {
		return nil, rec.fail(ctx, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, rec.fail(ctx, err)
	}

	rec.succeed(ctx, "")
	return &cp, nil
}

// ListMembers reads the current members from the remote catalog.
func (s *MembershipService) ListMembers(ctx context.Context, scope model.RoleScope, database, roleName string) ([]string, error) {
	return s.d.Roles.ListMembers(ctx, scope, database, roleName)
}

// ListForPrincipal serves the tracked edges, active and revoked.
func (s *MembershipService) ListForPrincipal(principal string) ([]*model.Membership, error) {
	tx := s.d.Store.Txn(false)
	defer tx.Abort()
	return repo.NewMembershipRepository(tx).ListByPrincipal(principal)
}

func (s *MembershipService) principalExists(ctx context.Context, scope model.RoleScope, database, principal string) (bool, error) {
	if scope == model.RoleScopeServer {
		return s.d.Logins.LoginExists(ctx, principal)
	}
	return s.d.Users.UserExists(ctx, database, principal)
}
