package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mssentry/mssentry/model"
	"github.com/mssentry/mssentry/mssql"
	"github.com/mssentry/mssentry/repo"
	"github.com/mssentry/mssentry/validate"
)

type PermissionService struct {
	d *Deps
}

func Permissions(d *Deps) *PermissionService {
	return &PermissionService{d: d}
}

type GrantRequest struct {
	Grantee     string
	GranteeType model.GranteeType
	Permission  string
	// Database is empty for server-level permissions.
	Database string
	// ObjectName narrows a database permission to one object. Empty
	// means the whole scope.
	ObjectName string
}

// Grant issues the permission to the grantee. The permission string
// must be in the closed set for its scope; an unknown string never
// reaches the remote server. An already-granted edge is a conflict, a
// revoked edge is reactivated.
func (s *PermissionService) Grant(ctx context.Context, actor string, req GrantRequest) (*model.PermissionGrant, error) {
	target := req.Permission + "->" + req.Grantee
	rec := s.d.begin(ctx, model.OpGrant, model.ResourcePermission, target, req.Database, actor)

	if err := s.validateRequest(req); err != nil {
		return nil, rec.fail(ctx, err)
	}

	ok, err := s.granteeExists(ctx, req)
	if err != nil {
		return nil, rec.fail(ctx, err)
	}
	if !ok {
		return nil, rec.fail(ctx, fmt.Errorf("grantee %q: %w", req.Grantee, model.ErrNotFound))
	}

	tx := s.d.Store.Txn(true)
	defer tx.Abort()
	grantRepo := repo.NewGrantRepository(tx)

	edge, err := grantRepo.GetEdge(req.Grantee, req.Permission, req.ObjectName, req.Database)
	if err != nil && err != model.ErrNotFound {
		return nil, rec.fail(ctx, err)
	}
	if edge != nil && edge.State == model.GrantStateGranted {
		return nil, rec.fail(ctx, fmt.Errorf("grant %s: %w", target, model.ErrAlreadyExists))
	}

	spec := mssql.GrantSpec{
		Permission: req.Permission,
		Grantee:    req.Grantee,
		Database:   req.Database,
		ObjectName: req.ObjectName,
	}
	if err := s.d.Permissions.Grant(ctx, spec); err != nil {
		return nil, rec.fail(ctx, err)
	}

	if edge == nil {
		edge = &model.PermissionGrant{
			UUID:        uuid.NewString(),
			Grantee:     req.Grantee,
			GranteeType: req.GranteeType,
			Permission:  req.Permission,
			ObjectName:  req.ObjectName,
			Database:    req.Database,
		}
	} else {
		cp := *edge
		edge = &cp
	}
	edge.State = model.GrantStateGranted
	edge.GrantedAt = now()
	edge.GrantedBy = actor
	edge.RevokedAt = 0
	edge.RevokedBy = ""

	if err := grantRepo.Put(edge); err != nil {
		return nil, rec.fail(ctx, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, rec.fail(ctx, err)
	}

	rec.succeed(ctx, "")
	return edge, nil
}

// Revoke removes the permission. The edge row stays in the revoked
// state so a later Grant reactivates it instead of duplicating.
func (s *PermissionService) Revoke(ctx context.Context, actor string, req GrantRequest) (*model.PermissionGrant, error) {
	target := req.Permission + "->" + req.Grantee
	rec := s.d.begin(ctx, model.OpRevoke, model.ResourcePermission, target, req.Database, actor)

	if err := s.validateRequest(req); err != nil {
		return nil, rec.fail(ctx, err)
	}

	tx := s.d.Store.Txn(true)
	defer tx.Abort()
	grantRepo := repo.NewGrantRepository(tx)

	edge, err := grantRepo.GetEdge(req.Grantee, req.Permission, req.ObjectName, req.Database)
	if err != nil {
		return nil, rec.fail(ctx, fmt.Errorf("grant %s: %w", target, err))
	}
	if edge.State != model.GrantStateGranted {
		return nil, rec.fail(ctx, fmt.Errorf("grant %s: %w", target, model.ErrAlreadyRevoked))
	}

	spec := mssql.GrantSpec{
		Permission: req.Permission,
		Grantee:    req.Grantee,
		Database:   req.Database,
		ObjectName: req.ObjectName,
	}
	if err := s.d.Permissions.Revoke(ctx, spec); err != nil {
		return nil, rec.fail(ctx, err)
	}

	cp := *edge
	cp.State = model.GrantStateRevoked
	cp.RevokedAt = now()
	cp.RevokedBy = actor

	if err := grantRepo.Put(&cp); err != nil {
		return nil, rec.fail(ctx, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, rec.fail(ctx, err)
	}

	rec.succeed(ctx, "")
	return &cp, nil
}

// ListGrants reads the effective permissions from the remote catalog.
func (s *PermissionService) ListGrants(ctx context.Context, database, grantee string) ([]mssql.GrantRow, error) {
	return s.d.Permissions.ListGrants(ctx, database, grantee)
}

// ListTracked serves the local edges, granted and revoked.
func (s *PermissionService) ListTracked(grantee string) ([]*model.PermissionGrant, error) {
	tx := s.d.Store.Txn(false)
	defer tx.Abort()
	return repo.NewGrantRepository(tx).ListByGrantee(grantee)
}

func (s *PermissionService) validateRequest(req GrantRequest) error {
	if err := validate.Name(req.Grantee); err != nil {
		return err
	}
	if req.ObjectName != "" {
		if err := validate.Name(req.ObjectName); err != nil {
			return err
		}
	}
	if req.Database == "" {
		if err := validate.ServerPermission(req.Permission); err != nil {
			return err
		}
		if req.ObjectName != "" {
			return model.Validationf("server-level permissions cannot target an object")
		}
		if req.GranteeType == model.GranteeUser {
			return model.Validationf("server-level permissions cannot be granted to a database user")
		}
		return nil
	}
	if err := validate.Name(req.Database); err != nil {
		return err
	}
	if err := validate.DatabasePermission(req.Permission); err != nil {
		return err
	}
	if req.GranteeType == model.GranteeLogin {
		return model.Validationf("database permissions cannot be granted to a login")
	}
	return nil
}

func (s *PermissionService) granteeExists(ctx context.Context, req GrantRequest) (bool, error) {
	switch req.GranteeType {
	case model.GranteeLogin:
		return s.d.Logins.LoginExists(ctx, req.Grantee)
	case model.GranteeUser:
		return s.d.Users.UserExists(ctx, req.Database, req.Grantee)
	case model.GranteeRole:
		scope := model.RoleScopeDatabase
		if req.Database == "" {
			scope = model.RoleScopeServer
		}
		return s.d.Roles.RoleExists(ctx, scope, req.Database, req.Grantee)
	default:
		return false, model.Validationf("unknown grantee type %q", req.GranteeType)
	}
}
