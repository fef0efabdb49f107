package mssql

import (
	"context"
	"fmt"

	"github.com/mssentry/mssentry/model"
)

// GrantSpec is the shape of one GRANT or REVOKE command. Database is
// empty for server-level permissions; ObjectName is empty for scope-
// level permissions.
type GrantSpec struct {
	Permission string
	Grantee    string
	Database   string
	ObjectName string
}

type PermissionStore struct {
	client *Client
}

func NewPermissionStore(client *Client) *PermissionStore {
	return &PermissionStore{client: client}
}

func (s *PermissionStore) Grant(ctx context.Context, spec GrantSpec) error {
	return s.client.exec(ctx, "grant permission", buildGrant("GRANT", spec))
}

func (s *PermissionStore) Revoke(ctx context.Context, spec GrantSpec) error {
	return s.client.exec(ctx, "revoke permission", buildGrant("REVOKE", spec))
}

func buildGrant(verb string, spec GrantSpec) string {
	target := "TO"
	if verb == "REVOKE" {
		target = "FROM"
	}

	stmt := verb + " " + spec.Permission
	if spec.ObjectName != "" {
		stmt += " ON OBJECT::" + quoteName(spec.ObjectName)
	}
	stmt += fmt.Sprintf(" %s %s", target, quoteName(spec.Grantee))

	if spec.Database != "" {
		return useDatabase(spec.Database, stmt)
	}
	return stmt
}

// GrantRow is one catalog row from sys.server_permissions or
// sys.database_permissions.
type GrantRow struct {
	Permission string `db:"permission_name"`
	ObjectName string `db:"object_name"`
}

// ListGrants reads the current scope-level and object permissions for
// one grantee from the catalog.
func (s *PermissionStore) ListGrants(ctx context.Context, database, grantee string) ([]GrantRow, error) {
	var query string
	if database == "" {
		query = `SELECT p.permission_name, ISNULL(OBJECT_NAME(p.major_id), '') AS object_name
			FROM sys.server_permissions p
			JOIN sys.server_principals g ON p.grantee_principal_id = g.principal_id
			WHERE g.name = @p1 AND p.state IN ('G', 'W')
			ORDER BY p.permission_name`
	} else {
		query = useDatabase(database, `SELECT p.permission_name, ISNULL(OBJECT_NAME(p.major_id), '') AS object_name
			FROM sys.database_permissions p
			JOIN sys.database_principals g ON p.grantee_principal_id = g.principal_id
			WHERE g.name = @p1 AND p.state IN ('G', 'W')
			ORDER BY p.permission_name`)
	}

	var rows []GrantRow
	if err := s.client.db.SelectContext(ctx, &rows, query, grantee); err != nil {
		return nil, model.Remote("list grants", err)
	}
	return rows, nil
}
