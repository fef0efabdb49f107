package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mssentry/mssentry/fixtures"
	"github.com/mssentry/mssentry/model"
	"github.com/mssentry/mssentry/repo"
)

const testActor = "ops@test"

func Test_CreateRole(t *testing.T) {
	env := newTestEnv(t)
	svc := Roles(env.deps)

	role, err := svc.Create(context.Background(), testActor, CreateRoleRequest{
		Name:     "auditors",
		Scope:    model.RoleScopeDatabase,
		Database: fixtures.DatabaseSales,
	})
	require.NoError(t, err)
	require.Equal(t, testActor, role.CreatedBy)
	require.False(t, role.IsBuiltIn)

	exists, err := svc.Exists(context.Background(), model.RoleScopeDatabase, fixtures.DatabaseSales, "auditors")
	require.NoError(t, err)
	require.True(t, exists)

	tx := env.deps.Store.Txn(false)
	defer tx.Abort()
	mirrored, err := repo.NewRoleRepository(tx).GetByName(fixtures.DatabaseSales, "auditors")
	require.NoError(t, err)
	require.Equal(t, model.RoleScopeDatabase, mirrored.Scope)

	requireAuditDiscipline(t, env.audit)
	require.Equal(t, model.OperationSuccess, lastAudit(t, env.audit, model.ResourceDatabaseRole).Status)
}

func Test_CreateRole_builtInNameRejectedLocally(t *testing.T) {
	env := newTestEnv(t)
	svc := Roles(env.deps)

	_, err := svc.Create(context.Background(), testActor, CreateRoleRequest{
		Name:  "sysadmin",
		Scope: model.RoleScopeServer,
	})
	var validationErr *model.ValidationError
	require.ErrorAs(t, err, &validationErr)

	// rejected before any remote command
	require.Empty(t, env.target.mutations())
	requireAuditDiscipline(t, env.audit)
}

func Test_CreateRole_duplicate(t *testing.T) {
	env := newTestEnv(t)
	svc := Roles(env.deps)

	_, err := svc.Create(context.Background(), testActor, CreateRoleRequest{
		Name:     fixtures.RoleAnalysts,
		Scope:    model.RoleScopeDatabase,
		Database: fixtures.DatabaseSales,
	})
	require.ErrorIs(t, err, model.ErrAlreadyExists)
	require.Empty(t, env.target.mutations())
}

func Test_CreateWithMembers(t *testing.T) {
	env := newTestEnv(t)
	svc := Roles(env.deps)
	ctx := context.Background()

	role, err := svc.CreateWithMembers(ctx, testActor, CreateRoleRequest{
		Name:     "auditors",
		Scope:    model.RoleScopeDatabase,
		Database: fixtures.DatabaseSales,
	}, []string{fixtures.UserAlice, fixtures.UserBob, fixtures.UserAlice})
	require.NoError(t, err)
	require.Equal(t, "auditors", role.Name)

	members, err := env.target.ListMembers(ctx, model.RoleScopeDatabase, fixtures.DatabaseSales, "auditors")
	require.NoError(t, err)
	// the duplicate in the request collapses to one add
	require.Equal(t, []string{fixtures.UserAlice, fixtures.UserBob}, members)

	tx := env.deps.Store.Txn(false)
	defer tx.Abort()
	edges, err := repo.NewMembershipRepository(tx).ListByRole("auditors", fixtures.DatabaseSales)
	require.NoError(t, err)
	require.Len(t, edges, 2)
	for _, edge := range edges {
		require.True(t, edge.Active())
	}
	requireAuditDiscipline(t, env.audit)
}

func Test_CreateWithMembers_missingMemberCheckedFirst(t *testing.T) {
	env := newTestEnv(t)
	svc := Roles(env.deps)

	_, err := svc.CreateWithMembers(context.Background(), testActor, CreateRoleRequest{
		Name:     "auditors",
		Scope:    model.RoleScopeDatabase,
		Database: fixtures.DatabaseSales,
	}, []string{fixtures.UserAlice, "ghost"})
	require.ErrorIs(t, err, model.ErrNotFound)

	// nothing was created, not even the role
	require.Empty(t, env.target.mutations())
	requireAuditDiscipline(t, env.audit)
}

func Test_CreateWithMembers_midFailureUnwinds(t *testing.T) {
	env := newTestEnv(t)
	env.target.failOn["AddMember:auditors/"+fixtures.UserBob] = errors.New("deadlock victim")
	svc := Roles(env.deps)
	ctx := context.Background()

	_, err := svc.CreateWithMembers(ctx, testActor, CreateRoleRequest{
		Name:     "auditors",
		Scope:    model.RoleScopeDatabase,
		Database: fixtures.DatabaseSales,
	}, []string{fixtures.UserAlice, fixtures.UserBob})

	var sagaErr *SagaError
	require.ErrorAs(t, err, &sagaErr)
	require.True(t, sagaErr.Compensation.Clean())

	// the role and the already-added member were both unwound
	exists, err := env.target.RoleExists(ctx, model.RoleScopeDatabase, fixtures.DatabaseSales, "auditors")
	require.NoError(t, err)
	require.False(t, exists)

	// applied steps are undone newest first
	require.Equal(t, []string{
		"CreateRole:auditors",
		"AddMember:auditors/" + fixtures.UserAlice,
		"AddMember:auditors/" + fixtures.UserBob,
		"RemoveMember:auditors/" + fixtures.UserAlice,
		"DropRole:auditors",
	}, env.target.mutations())

	// no mirror residue
	tx := env.deps.Store.Txn(false)
	defer tx.Abort()
	_, err = repo.NewRoleRepository(tx).GetByName(fixtures.DatabaseSales, "auditors")
	require.ErrorIs(t, err, model.ErrNotFound)

	requireAuditDiscipline(t, env.audit)
	op := lastAudit(t, env.audit, model.ResourceDatabaseRole)
	require.Equal(t, model.OperationFailed, op.Status)
	require.Contains(t, op.Details, "rollback attempted: 2 step(s)")
}

func Test_DeleteRole_builtInProtected(t *testing.T) {
	env := newTestEnv(t)
	svc := Roles(env.deps)

	err := svc.DeleteWithForce(context.Background(), testActor,
		model.RoleScopeDatabase, fixtures.DatabaseSales, "db_owner", true)
	require.ErrorIs(t, err, model.ErrBuiltInRole)
	require.Empty(t, env.target.mutations())
	requireAuditDiscipline(t, env.audit)
}

func Test_DeleteRole_membersWithoutForce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.target.AddMember(ctx, model.RoleScopeDatabase,
		fixtures.DatabaseSales, fixtures.RoleAnalysts, fixtures.UserAlice))
	env.target.calls = nil

	svc := Roles(env.deps)
	err := svc.DeleteWithForce(ctx, testActor,
		model.RoleScopeDatabase, fixtures.DatabaseSales, fixtures.RoleAnalysts, false)
	require.ErrorIs(t, err, model.ErrHasDependents)
	require.Empty(t, env.target.mutations())
}

func Test_DeleteRole_force(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.target.AddMember(ctx, model.RoleScopeDatabase,
		fixtures.DatabaseSales, fixtures.RoleAnalysts, fixtures.UserAlice))

	svc := Roles(env.deps)
	err := svc.DeleteWithForce(ctx, testActor,
		model.RoleScopeDatabase, fixtures.DatabaseSales, fixtures.RoleAnalysts, true)
	require.NoError(t, err)

	exists, err := env.target.RoleExists(ctx, model.RoleScopeDatabase, fixtures.DatabaseSales, fixtures.RoleAnalysts)
	require.NoError(t, err)
	require.False(t, exists)
	requireAuditDiscipline(t, env.audit)
}

func Test_DeleteRole_dropFailureRestoresMembers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.target.AddMember(ctx, model.RoleScopeDatabase,
		fixtures.DatabaseSales, fixtures.RoleAnalysts, fixtures.UserAlice))
	require.NoError(t, env.target.AddMember(ctx, model.RoleScopeDatabase,
		fixtures.DatabaseSales, fixtures.RoleAnalysts, fixtures.UserBob))
	env.target.failOn["DropRole:"+fixtures.RoleAnalysts] = errors.New("role is referenced")

	svc := Roles(env.deps)
	err := svc.DeleteWithForce(ctx, testActor,
		model.RoleScopeDatabase, fixtures.DatabaseSales, fixtures.RoleAnalysts, true)

	var sagaErr *SagaError
	require.ErrorAs(t, err, &sagaErr)
	require.Equal(t, "drop role", sagaErr.Step)
	require.True(t, sagaErr.Compensation.Clean())

	// the role still stands and every member was re-added
	members, err := env.target.ListMembers(ctx, model.RoleScopeDatabase, fixtures.DatabaseSales, fixtures.RoleAnalysts)
	require.NoError(t, err)
	require.Equal(t, []string{fixtures.UserAlice, fixtures.UserBob}, members)
	requireAuditDiscipline(t, env.audit)
}
