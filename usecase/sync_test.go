package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mssentry/mssentry/fixtures"
	"github.com/mssentry/mssentry/model"
	"github.com/mssentry/mssentry/repo"
)

func Test_Seed(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, Seed(context.Background(), env.deps))

	tx := env.deps.Store.Txn(false)
	defer tx.Abort()

	logins, err := repo.NewLoginRepository(tx).List()
	require.NoError(t, err)
	require.Len(t, logins, len(fixtures.Logins()))

	// built-in roles are mirrored too
	role, err := repo.NewRoleRepository(tx).GetByName("", "sysadmin")
	require.NoError(t, err)
	require.True(t, role.IsBuiltIn)

	users, err := repo.NewUserRepository(tx).ListByDatabase(fixtures.DatabaseSales)
	require.NoError(t, err)
	require.Len(t, users, 2)
}

func Test_Seed_isRepeatable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, env.deps))
	require.NoError(t, env.target.DropLogin(ctx, fixtures.LoginSvcEtl))
	require.NoError(t, Seed(ctx, env.deps))

	tx := env.deps.Store.Txn(false)
	defer tx.Abort()
	logins, err := repo.NewLoginRepository(tx).List()
	require.NoError(t, err)
	// re-seeding refreshes rows in place, it does not duplicate
	require.Len(t, logins, len(fixtures.Logins()))
}

func Test_Seed_propagatesRemoteFailure(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Logins = failingLoginStore{LoginStore: env.target}

	err := Seed(context.Background(), env.deps)
	require.Error(t, err)
}

type failingLoginStore struct {
	LoginStore
}

func (failingLoginStore) ListLogins(context.Context) ([]*model.Login, error) {
	return nil, model.Remote("list logins", context.DeadlineExceeded)
}
