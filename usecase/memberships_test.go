package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mssentry/mssentry/fixtures"
	"github.com/mssentry/mssentry/model"
)

func Test_Assign(t *testing.T) {
	env := newTestEnv(t)
	svc := Memberships(env.deps)
	ctx := context.Background()

	m, err := svc.Assign(ctx, testActor, model.RoleScopeDatabase,
		fixtures.DatabaseSales, fixtures.RoleAnalysts, fixtures.UserAlice)
	require.NoError(t, err)
	require.True(t, m.Active())
	require.Equal(t, testActor, m.GrantedBy)

	members, err := env.target.ListMembers(ctx, model.RoleScopeDatabase, fixtures.DatabaseSales, fixtures.RoleAnalysts)
	require.NoError(t, err)
	require.Equal(t, []string{fixtures.UserAlice}, members)
	requireAuditDiscipline(t, env.audit)
}

func Test_Assign_activeEdgeConflicts(t *testing.T) {
	env := newTestEnv(t)
	svc := Memberships(env.deps)
	ctx := context.Background()

	_, err := svc.Assign(ctx, testActor, model.RoleScopeDatabase,
		fixtures.DatabaseSales, fixtures.RoleAnalysts, fixtures.UserAlice)
	require.NoError(t, err)
	before := len(env.target.mutations())

	_, err = svc.Assign(ctx, testActor, model.RoleScopeDatabase,
		fixtures.DatabaseSales, fixtures.RoleAnalysts, fixtures.UserAlice)
	require.ErrorIs(t, err, model.ErrAlreadyExists)

	// the conflict is decided locally; no second remote command
	require.Len(t, env.target.mutations(), before)
	requireAuditDiscipline(t, env.audit)
}

func Test_Assign_toBuiltInRole(t *testing.T) {
	env := newTestEnv(t)
	svc := Memberships(env.deps)

	// membership in built-in roles is a legitimate operation, only
	// create and delete of the role itself are protected
	m, err := svc.Assign(context.Background(), testActor, model.RoleScopeServer,
		"", "sysadmin", fixtures.LoginBob)
	require.NoError(t, err)
	require.Equal(t, "sysadmin", m.RoleName)
}

func Test_Assign_missingPrincipal(t *testing.T) {
	env := newTestEnv(t)
	svc := Memberships(env.deps)

	_, err := svc.Assign(context.Background(), testActor, model.RoleScopeDatabase,
		fixtures.DatabaseSales, fixtures.RoleAnalysts, "ghost")
	require.ErrorIs(t, err, model.ErrNotFound)
	require.Empty(t, env.target.mutations())
}

func Test_RemoveAndReassign(t *testing.T) {
	env := newTestEnv(t)
	svc := Memberships(env.deps)
	ctx := context.Background()

	assigned, err := svc.Assign(ctx, testActor, model.RoleScopeDatabase,
		fixtures.DatabaseSales, fixtures.RoleAnalysts, fixtures.UserAlice)
	require.NoError(t, err)

	revoked, err := svc.Remove(ctx, testActor, model.RoleScopeDatabase,
		fixtures.DatabaseSales, fixtures.RoleAnalysts, fixtures.UserAlice, "offboarding")
	require.NoError(t, err)
	require.Equal(t, assigned.UUID, revoked.UUID)
	require.Equal(t, model.MembershipRevoked, revoked.State)
	require.Equal(t, "offboarding", revoked.RevokeReason)

	// a second revoke has nothing to do
	_, err = svc.Remove(ctx, testActor, model.RoleScopeDatabase,
		fixtures.DatabaseSales, fixtures.RoleAnalysts, fixtures.UserAlice, "")
	require.ErrorIs(t, err, model.ErrAlreadyRevoked)

	// re-assignment reactivates the edge instead of growing a second row
	reassigned, err := svc.Assign(ctx, testActor, model.RoleScopeDatabase,
		fixtures.DatabaseSales, fixtures.RoleAnalysts, fixtures.UserAlice)
	require.NoError(t, err)
	require.Equal(t, assigned.UUID, reassigned.UUID)
	require.True(t, reassigned.Active())
	require.Empty(t, reassigned.RevokeReason)

	edges, err := svc.ListForPrincipal(fixtures.UserAlice)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	requireAuditDiscipline(t, env.audit)
}

func Test_Remove_unknownEdge(t *testing.T) {
	env := newTestEnv(t)
	svc := Memberships(env.deps)

	_, err := svc.Remove(context.Background(), testActor, model.RoleScopeDatabase,
		fixtures.DatabaseSales, fixtures.RoleAnalysts, fixtures.UserBob, "")
	require.ErrorIs(t, err, model.ErrNotFound)
	require.Empty(t, env.target.mutations())
}
