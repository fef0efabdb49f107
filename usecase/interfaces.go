package usecase

import (
	"context"

	"github.com/mssentry/mssentry/model"
	"github.com/mssentry/mssentry/mssql"
)

// Remote stores are the boundary to the administrative target. Each
// method is a single remote command or catalog read; none of them are
// composable or transactional. The mssql package provides the real
// implementations, tests substitute stateful fakes.

type LoginStore interface {
	CreateLogin(ctx context.Context, spec mssql.LoginSpec) error
	AlterLoginPassword(ctx context.Context, name, password string) error
	SetLoginEnabled(ctx context.Context, name string, enabled bool) error
	SetLoginDefaultDatabase(ctx context.Context, name, database string) error
	DropLogin(ctx context.Context, name string) error
	LoginExists(ctx context.Context, name string) (bool, error)
	FetchLogin(ctx context.Context, name string) (*model.Login, error)
	ListLogins(ctx context.Context) ([]*model.Login, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, database, name, loginName string) error
	SetUserDefaultSchema(ctx context.Context, database, name, schema string) error
	DropUser(ctx context.Context, database, name string) error
	UserExists(ctx context.Context, database, name string) (bool, error)
	FetchUser(ctx context.Context, database, name string) (*model.DatabaseUser, error)
	ListUsers(ctx context.Context, database string) ([]*model.DatabaseUser, error)
}

type RoleStore interface {
	CreateRole(ctx context.Context, scope model.RoleScope, database, name, owner string) error
	DropRole(ctx context.Context, scope model.RoleScope, database, name string) error
	AddMember(ctx context.Context, scope model.RoleScope, database, role, member string) error
	RemoveMember(ctx context.Context, scope model.RoleScope, database, role, member string) error
	RoleExists(ctx context.Context, scope model.RoleScope, database, name string) (bool, error)
	FetchRole(ctx context.Context, scope model.RoleScope, database, name string) (*model.Role, error)
	ListRoles(ctx context.Context, scope model.RoleScope, database string) ([]*model.Role, error)
	ListMembers(ctx context.Context, scope model.RoleScope, database, role string) ([]string, error)
}

type PermissionStore interface {
	Grant(ctx context.Context, spec mssql.GrantSpec) error
	Revoke(ctx context.Context, spec mssql.GrantSpec) error
	ListGrants(ctx context.Context, database, grantee string) ([]mssql.GrantRow, error)
}
