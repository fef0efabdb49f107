package usecase

import (
	"context"
	"fmt"

	"github.com/mssentry/mssentry/model"
	"github.com/mssentry/mssentry/repo"
)

// Seed rebuilds the local mirror from the remote catalogs. The mirror
// is a cache of the remote state, so a cold start or a suspected drift
// is repaired by reading everything back. Membership and grant edges
// keep their local history; seeding only refreshes principals and
// roles.
func Seed(ctx context.Context, d *Deps) error {
	logins, err := d.Logins.ListLogins(ctx)
	if err != nil {
		return fmt.Errorf("seed logins: %w", err)
	}
	serverRoles, err := d.Roles.ListRoles(ctx, model.RoleScopeServer, "")
	if err != nil {
		return fmt.Errorf("seed server roles: %w", err)
	}

	type dbCatalog struct {
		name  string
		users []*model.DatabaseUser
		roles []*model.Role
	}
	catalogs := make([]dbCatalog, 0, len(d.Databases))
	for _, database := range d.Databases {
		users, err := d.Users.ListUsers(ctx, database)
		if err != nil {
			return fmt.Errorf("seed users of %q: %w", database, err)
		}
		roles, err := d.Roles.ListRoles(ctx, model.RoleScopeDatabase, database)
		if err != nil {
			return fmt.Errorf("seed roles of %q: %w", database, err)
		}
		catalogs = append(catalogs, dbCatalog{name: database, users: users, roles: roles})
	}

	tx := d.Store.Txn(true)
	defer tx.Abort()

	loginRepo := repo.NewLoginRepository(tx)
	for _, login := range logins {
		if err := loginRepo.Put(login); err != nil {
			return err
		}
	}
	roleRepo := repo.NewRoleRepository(tx)
	for _, role := range serverRoles {
		if err := roleRepo.Put(role); err != nil {
			return err
		}
	}
	userRepo := repo.NewUserRepository(tx)
	for _, c := range catalogs {
		for _, user := range c.users {
			if err := userRepo.Put(user); err != nil {
				return err
			}
		}
		for _, role := range c.roles {
			if err := roleRepo.Put(role); err != nil {
				return err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	total := len(logins) + len(serverRoles)
	for _, c := range catalogs {
		total += len(c.users) + len(c.roles)
	}
	d.Logger.Info("mirror seeded", "server", d.ServerInstance,
		"databases", len(d.Databases), "objects", total)
	return nil
}
