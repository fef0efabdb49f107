package repo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mssentry/mssentry/fixtures"
	"github.com/mssentry/mssentry/model"
)

func putRoles(t *testing.T, repo *RoleRepository) {
	t.Helper()
	for _, r := range fixtures.Roles() {
		cp := r
		require.NoError(t, repo.Put(&cp))
	}
}

func Test_RoleGetByName(t *testing.T) {
	store := testStore(t)
	tx := store.Txn(true)
	defer tx.Abort()
	repo := NewRoleRepository(tx)
	putRoles(t, repo)

	// the same name may exist at server scope and inside a database
	server, err := repo.GetByName("", fixtures.RoleDeployers)
	require.NoError(t, err)
	require.Equal(t, model.RoleScopeServer, server.Scope)

	db, err := repo.GetByName(fixtures.DatabaseSales, fixtures.RoleAnalysts)
	require.NoError(t, err)
	require.Equal(t, fixtures.DatabaseSales, db.Database)

	_, err = repo.GetByName(fixtures.DatabaseReports, fixtures.RoleAnalysts)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func Test_RoleDeleteBuiltIn(t *testing.T) {
	store := testStore(t)
	tx := store.Txn(true)
	defer tx.Abort()
	repo := NewRoleRepository(tx)
	putRoles(t, repo)

	err := repo.Delete(fixtures.DatabaseSales, "db_owner")
	require.ErrorIs(t, err, model.ErrBuiltInRole)

	// still present
	_, err = repo.GetByName(fixtures.DatabaseSales, "db_owner")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(fixtures.DatabaseSales, fixtures.RoleAnalysts))
	_, err = repo.GetByName(fixtures.DatabaseSales, fixtures.RoleAnalysts)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func Test_RoleListByScope(t *testing.T) {
	store := testStore(t)
	tx := store.Txn(true)
	defer tx.Abort()
	repo := NewRoleRepository(tx)
	putRoles(t, repo)

	server, err := repo.ListByScope(model.RoleScopeServer, "")
	require.NoError(t, err)
	names := make([]string, 0, len(server))
	for _, r := range server {
		names = append(names, r.Name)
	}
	require.ElementsMatch(t, []string{fixtures.RoleDeployers, "sysadmin"}, names)

	sales, err := repo.ListByScope(model.RoleScopeDatabase, fixtures.DatabaseSales)
	require.NoError(t, err)
	require.Len(t, sales, 2)
}
