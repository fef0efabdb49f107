package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mssentry/mssentry/model"
)

type RoleStore struct {
	client *Client
}

func NewRoleStore(client *Client) *RoleStore {
	return &RoleStore{client: client}
}

func (s *RoleStore) CreateRole(ctx context.Context, scope model.RoleScope, database, name, owner string) error {
	var stmt string
	if scope == model.RoleScopeServer {
		stmt = "CREATE SERVER ROLE " + quoteName(name)
		if owner != "" {
			stmt += " AUTHORIZATION " + quoteName(owner)
		}
		return s.client.exec(ctx, "create server role", stmt)
	}
	stmt = "CREATE ROLE " + quoteName(name)
	if owner != "" {
		stmt += " AUTHORIZATION " + quoteName(owner)
	}
	return s.client.exec(ctx, "create database role", useDatabase(database, stmt))
}

func (s *RoleStore) DropRole(ctx context.Context, scope model.RoleScope, database, name string) error {
	if scope == model.RoleScopeServer {
		return s.client.exec(ctx, "drop server role", "DROP SERVER ROLE "+quoteName(name))
	}
	return s.client.exec(ctx, "drop database role", useDatabase(database, "DROP ROLE "+quoteName(name)))
}

func (s *RoleStore) AddMember(ctx context.Context, scope model.RoleScope, database, role, member string) error {
	if scope == model.RoleScopeServer {
		stmt := fmt.Sprintf("ALTER SERVER ROLE %s ADD MEMBER %s", quoteName(role), quoteName(member))
		return s.client.exec(ctx, "add role member", stmt)
	}
	stmt := fmt.Sprintf("ALTER ROLE %s ADD MEMBER %s", quoteName(role), quoteName(member))
	return s.client.exec(ctx, "add role member", useDatabase(database, stmt))
}

func (s *RoleStore) RemoveMember(ctx context.Context, scope model.RoleScope, database, role, member string) error {
	if scope == model.RoleScopeServer {
		stmt := fmt.Sprintf("ALTER SERVER ROLE %s DROP MEMBER %s", quoteName(role), quoteName(member))
		return s.client.exec(ctx, "remove role member", stmt)
	}
	stmt := fmt.Sprintf("ALTER ROLE %s DROP MEMBER %s", quoteName(role), quoteName(member))
	return s.client.exec(ctx, "remove role member", useDatabase(database, stmt))
}

type roleRow struct {
	Name        string         `db:"name"`
	IsFixedRole bool           `db:"is_fixed_role"`
	Owner       sql.NullString `db:"owner"`
	CreateDate  sql.NullTime   `db:"create_date"`
	ModifyDate  sql.NullTime   `db:"modify_date"`
}

func (r roleRow) toModel(scope model.RoleScope, database string) *model.Role {
	role := &model.Role{
		Name:      r.Name,
		Scope:     scope,
		Database:  database,
		IsBuiltIn: r.IsFixedRole,
	}
	if r.Owner.Valid {
		role.Owner = r.Owner.String
	}
	if r.CreateDate.Valid {
		role.CreatedAt = r.CreateDate.Time.Unix()
	}
	if r.ModifyDate.Valid {
		role.ModifiedAt = r.ModifyDate.Time.Unix()
	}
	return role
}

func (s *RoleStore) RoleExists(ctx context.Context, scope model.RoleScope, database, name string) (bool, error) {
	_, err := s.FetchRole(ctx, scope, database, name)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FetchRole re-reads the role from the catalog. Composite creates use
// it to confirm observable state before reporting success.
func (s *RoleStore) FetchRole(ctx context.Context, scope model.RoleScope, database, name string) (*model.Role, error) {
	query := s.roleQuery(scope, database) + " AND r.name = @p1"

	var row roleRow
	err := s.client.db.GetContext(ctx, &row, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, model.Remote("fetch role", err)
	}
	return row.toModel(scope, database), nil
}

func (s *RoleStore) ListRoles(ctx context.Context, scope model.RoleScope, database string) ([]*model.Role, error) {
	query := s.roleQuery(scope, database) + " ORDER BY r.name"

	var rows []roleRow
	if err := s.client.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, model.Remote("list roles", err)
	}

	roles := make([]*model.Role, len(rows))
	for i, r := range rows {
		roles[i] = r.toModel(scope, database)
	}
	return roles, nil
}

// ListMembers enumerates the current member principal names.
func (s *RoleStore) ListMembers(ctx context.Context, scope model.RoleScope, database, role string) ([]string, error) {
	var query string
	if scope == model.RoleScopeServer {
		query = `SELECT m.name
			FROM sys.server_role_members rm
			JOIN sys.server_principals r ON rm.role_principal_id = r.principal_id
			JOIN sys.server_principals m ON rm.member_principal_id = m.principal_id
			WHERE r.name = @p1
			ORDER BY m.name`
	} else {
		query = useDatabase(database, `SELECT m.name
			FROM sys.database_role_members rm
			JOIN sys.database_principals r ON rm.role_principal_id = r.principal_id
			JOIN sys.database_principals m ON rm.member_principal_id = m.principal_id
			WHERE r.name = @p1
			ORDER BY m.name`)
	}

	var members []string
	if err := s.client.db.SelectContext(ctx, &members, query, role); err != nil {
		return nil, model.Remote("list role members", err)
	}
	return members, nil
}

func (s *RoleStore) roleQuery(scope model.RoleScope, database string) string {
	if scope == model.RoleScopeServer {
		return `SELECT r.name, r.is_fixed_role, o.name AS owner, r.create_date, r.modify_date
			FROM sys.server_principals r
			LEFT JOIN sys.server_principals o ON r.owning_principal_id = o.principal_id
			WHERE r.type = 'R'`
	}
	return useDatabase(database, `SELECT r.name, r.is_fixed_role, o.name AS owner, r.create_date, r.modify_date
		FROM sys.database_principals r
		LEFT JOIN sys.database_principals o ON r.owning_principal_id = o.principal_id
		WHERE r.type = 'R'`)
}
