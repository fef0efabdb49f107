package repo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mssentry/mssentry/fixtures"
	"github.com/mssentry/mssentry/model"
)

func Test_MembershipEdgeLookup(t *testing.T) {
	store := testStore(t)
	tx := store.Txn(true)
	defer tx.Abort()
	repo := NewMembershipRepository(tx)

	for _, m := range fixtures.Memberships() {
		cp := m
		require.NoError(t, repo.Put(&cp))
	}

	got, err := repo.GetEdge(fixtures.UserAlice, fixtures.RoleAnalysts, fixtures.DatabaseSales)
	require.NoError(t, err)
	require.Equal(t, fixtures.MembershipUUID1, got.UUID)
	require.True(t, got.Active())

	// server-scope edges have an empty database and must still be
	// addressable
	got, err = repo.GetEdge(fixtures.LoginBob, fixtures.RoleDeployers, "")
	require.NoError(t, err)
	require.Equal(t, fixtures.MembershipUUID2, got.UUID)
	require.False(t, got.Active())

	_, err = repo.GetEdge(fixtures.UserBob, fixtures.RoleAnalysts, fixtures.DatabaseSales)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func Test_MembershipListByPrincipal(t *testing.T) {
	store := testStore(t)
	tx := store.Txn(true)
	defer tx.Abort()
	repo := NewMembershipRepository(tx)

	for _, m := range fixtures.Memberships() {
		cp := m
		require.NoError(t, repo.Put(&cp))
	}
	extra := model.Membership{
		UUID:      "00000000-0000-4000-a000-00000000000f",
		RoleName:  fixtures.RoleReaders,
		RoleScope: model.RoleScopeDatabase,
		Database:  fixtures.DatabaseReports,
		Principal: fixtures.UserAlice,
		State:     model.MembershipActive,
	}
	require.NoError(t, repo.Put(&extra))

	list, err := repo.ListByPrincipal(fixtures.UserAlice)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func Test_MembershipReactivationKeepsOneRow(t *testing.T) {
	store := testStore(t)
	tx := store.Txn(true)
	defer tx.Abort()
	repo := NewMembershipRepository(tx)

	m := fixtures.Memberships()[1] // revoked edge
	require.NoError(t, repo.Put(&m))

	reactivated := m
	reactivated.State = model.MembershipActive
	reactivated.RevokedBy = ""
	reactivated.RevokeReason = ""
	require.NoError(t, repo.Put(&reactivated))

	list, err := repo.ListByPrincipal(m.Principal)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, model.MembershipActive, list[0].State)
}
