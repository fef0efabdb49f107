package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mssentry/mssentry/model"
	"github.com/mssentry/mssentry/repo"
	"github.com/mssentry/mssentry/validate"
)

type RoleService struct {
	d *Deps
}

func Roles(d *Deps) *RoleService {
	return &RoleService{d: d}
}

func resourceFor(scope model.RoleScope) model.ResourceType {
	if scope == model.RoleScopeServer {
		return model.ResourceServerRole
	}
	return model.ResourceDatabaseRole
}

type CreateRoleRequest struct {
	Name     string
	Scope    model.RoleScope
	Database string // empty for server scope
	Owner    string
}

func (s *RoleService) validateCreate(req CreateRoleRequest) error {
	if err := validate.RoleName(req.Name, req.Scope); err != nil {
		return err
	}
	if req.Scope == model.RoleScopeDatabase {
		if err := validate.Name(req.Database); err != nil {
			return err
		}
	} else if req.Database != "" {
		return model.Validationf("server role %q must not name a database", req.Name)
	}
	if req.Owner != "" {
		if err := validate.Name(req.Owner); err != nil {
			return err
		}
	}
	return nil
}

func (s *RoleService) Create(ctx context.Context, actor string, req CreateRoleRequest) (*model.Role, error) {
	rec := s.d.begin(ctx, model.OpCreate, resourceFor(req.Scope), req.Name, req.Database, actor)

	if err := s.validateCreate(req); err != nil {
		return nil, rec.fail(ctx, err)
	}

	exists, err := s.d.Roles.RoleExists(ctx, req.Scope, req.Database, req.Name)
	if err != nil {
		return nil, rec.fail(ctx, err)
	}
	if exists {
		return nil, rec.fail(ctx, fmt.Errorf("role %q: %w", req.Name, model.ErrAlreadyExists))
	}

	if err := s.d.Roles.CreateRole(ctx, req.Scope, req.Database, req.Name, req.Owner); err != nil {
		return nil, rec.fail(ctx, err)
	}

	role, err := s.d.Roles.FetchRole(ctx, req.Scope, req.Database, req.Name)
	if err != nil {
		return nil, rec.fail(ctx, fmt.Errorf("role created but not observable: %w", err))
	}
	role.CreatedBy = actor
	role.ModifiedBy = actor

	if err := s.mirrorPut(role); err != nil {
		return nil, rec.fail(ctx, err)
	}

	rec.succeed(ctx, "")
	return role, nil
}

// CreateWithMembers creates the role and adds the initial members one
// at a time. Any member failure unwinds everything applied so far:
// already-added members are removed in reverse order, then the role
// itself is dropped.
func (s *RoleService) CreateWithMembers(ctx context.Context, actor string, req CreateRoleRequest, members []string) (*model.Role, error) {
	rec := s.d.begin(ctx, model.OpCreate, resourceFor(req.Scope), req.Name, req.Database, actor)

	if err := s.validateCreate(req); err != nil {
		return nil, rec.fail(ctx, err)
	}
	members = dedupe(members)
	for _, member := range members {
		if err := validate.Name(member); err != nil {
			return nil, rec.fail(ctx, err)
		}
	}

	// every candidate member must pre-exist before anything is mutated
	for _, member := range members {
		ok, err := s.memberExists(ctx, req.Scope, req.Database, member)
		if err != nil {
			return nil, rec.fail(ctx, err)
		}
		if !ok {
			return nil, rec.fail(ctx, fmt.Errorf("member %q: %w", member, model.ErrNotFound))
		}
	}

	exists, err := s.d.Roles.RoleExists(ctx, req.Scope, req.Database, req.Name)
	if err != nil {
		return nil, rec.fail(ctx, err)
	}
	if exists {
		return nil, rec.fail(ctx, fmt.Errorf("role %q: %w", req.Name, model.ErrAlreadyExists))
	}

	sg := newSaga(s.d.Logger)

	if err := s.d.Roles.CreateRole(ctx, req.Scope, req.Database, req.Name, req.Owner); err != nil {
		return nil, rec.fail(ctx, err)
	}
	sg.record("create role "+req.Name, func(ctx context.Context) error {
		return s.d.Roles.DropRole(ctx, req.Scope, req.Database, req.Name)
	})

	for _, member := range members {
		member := member
		if err := s.d.Roles.AddMember(ctx, req.Scope, req.Database, req.Name, member); err != nil {
			return nil, s.failSaga(ctx, rec, sg, resourceFor(req.Scope), "add member "+member, err)
		}
		sg.record("add member "+member, func(ctx context.Context) error {
			return s.d.Roles.RemoveMember(ctx, req.Scope, req.Database, req.Name, member)
		})
	}

	// the create is not trusted until it is independently re-read
	role, err := s.d.Roles.FetchRole(ctx, req.Scope, req.Database, req.Name)
	if err != nil {
		return nil, s.failSaga(ctx, rec, sg, resourceFor(req.Scope), "confirm role", err)
	}
	role.CreatedBy = actor
	role.ModifiedBy = actor

	if err := s.mirrorPutWithMembers(role, members, actor); err != nil {
		return nil, rec.fail(ctx, err)
	}

	rec.succeed(ctx, fmt.Sprintf("created with %d member(s)", len(members)))
	return role, nil
}

// DeleteWithForce drops the role. With members present and force off
// it fails before any mutation. With force on, members are removed
// first; a removal failure re-adds everyone already removed and the
// drop is not attempted. A failing drop also restores the members —
// best effort only, the role may be left memberless but standing.
func (s *RoleService) DeleteWithForce(ctx context.Context, actor string, scope model.RoleScope, database, name string, force bool) error {
	rec := s.d.begin(ctx, model.OpDelete, resourceFor(scope), name, database, actor)

	if err := validate.Name(name); err != nil {
		return rec.fail(ctx, err)
	}

	role, err := s.d.Roles.FetchRole(ctx, scope, database, name)
	if err != nil {
		return rec.fail(ctx, err)
	}
	if role.IsBuiltIn || validate.IsBuiltInRole(name, scope) {
		return rec.fail(ctx, fmt.Errorf("role %q: %w", name, model.ErrBuiltInRole))
	}

	members, err := s.d.Roles.ListMembers(ctx, scope, database, name)
	if err != nil {
		return rec.fail(ctx, err)
	}

	if len(members) > 0 && !force {
		return rec.fail(ctx, fmt.Errorf("role %q has %d member(s): %w",
			name, len(members), model.ErrHasDependents))
	}

	sg := newSaga(s.d.Logger)

	for _, member := range members {
		member := member
		if err := s.d.Roles.RemoveMember(ctx, scope, database, name, member); err != nil {
			return s.failSaga(ctx, rec, sg, resourceFor(scope), "remove member "+member, err)
		}
		sg.record("remove member "+member, func(ctx context.Context) error {
			return s.d.Roles.AddMember(ctx, scope, database, name, member)
		})
	}

	if err := s.d.Roles.DropRole(ctx, scope, database, name); err != nil {
		return s.failSaga(ctx, rec, sg, resourceFor(scope), "drop role", err)
	}

	if err := s.mirrorDelete(database, name); err != nil {
		return rec.fail(ctx, err)
	}

	rec.succeed(ctx, fmt.Sprintf("removed %d member(s) before drop", len(members)))
	return nil
}

// failSaga unwinds the applied steps and records the triggering error
// together with the full compensation outcome.
func (s *RoleService) failSaga(ctx context.Context, rec *opRecord, sg *saga, resource model.ResourceType, step string, trigger error) error {
	report := sg.unwind(ctx)
	s.d.Metrics.Compensation(string(resource), report.Clean())

	err := &SagaError{Step: step, Trigger: trigger, Compensation: report}
	return rec.failWithDetails(ctx, err, report.Note())
}

func (s *RoleService) Get(ctx context.Context, scope model.RoleScope, database, name string) (*model.Role, error) {
	role, err := s.d.Roles.FetchRole(ctx, scope, database, name)
	if err != nil {
		return nil, err
	}
	if err := s.mirrorPut(role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *RoleService) List(ctx context.Context, scope model.RoleScope, database string) ([]*model.Role, error) {
	roles, err := s.d.Roles.ListRoles(ctx, scope, database)
	if err != nil {
		return nil, err
	}

	tx := s.d.Store.Txn(true)
	defer tx.Abort()
	roleRepo := repo.NewRoleRepository(tx)
	for _, role := range roles {
		if err := roleRepo.Put(role); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return roles, nil
}

func (s *RoleService) Exists(ctx context.Context, scope model.RoleScope, database, name string) (bool, error) {
	return s.d.Roles.RoleExists(ctx, scope, database, name)
}

func (s *RoleService) memberExists(ctx context.Context, scope model.RoleScope, database, member string) (bool, error) {
	if scope == model.RoleScopeServer {
		return s.d.Logins.LoginExists(ctx, member)
	}
	return s.d.Users.UserExists(ctx, database, member)
}

func (s *RoleService) mirrorPut(role *model.Role) error {
	tx := s.d.Store.Txn(true)
	defer tx.Abort()
	if err := repo.NewRoleRepository(tx).Put(role); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *RoleService) mirrorPutWithMembers(role *model.Role, members []string, actor string) error {
	tx := s.d.Store.Txn(true)
	defer tx.Abort()

	if err := repo.NewRoleRepository(tx).Put(role); err != nil {
		return err
	}

	membershipRepo := repo.NewMembershipRepository(tx)
	for _, member := range members {
		edge := &model.Membership{
			UUID:      uuid.NewString(),
			RoleName:  role.Name,
			RoleScope: role.Scope,
			Database:  role.Database,
			Principal: member,
			State:     model.MembershipActive,
			GrantedAt: now(),
			GrantedBy: actor,
		}
		if err := membershipRepo.Put(edge); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *RoleService) mirrorDelete(database, name string) error {
	tx := s.d.Store.Txn(true)
	defer tx.Abort()

	roleRepo := repo.NewRoleRepository(tx)
	if err := roleRepo.Delete(database, name); err != nil && err != model.ErrNotFound {
		return err
	}

	membershipRepo := repo.NewMembershipRepository(tx)
	edges, err := membershipRepo.ListByRole(name, database)
	if err != nil {
		return err
	}
	for _, edge := range edges {
		if err := membershipRepo.Delete(edge.UUID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func dedupe(values []string) []string {
	seen := map[string]struct{}{}
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
