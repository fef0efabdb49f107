package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mssentry/mssentry/model"
)

type UserStore struct {
	client *Client
}

func NewUserStore(client *Client) *UserStore {
	return &UserStore{client: client}
}

// CreateUser maps a database user to a login, or creates a user
// without login when loginName is empty.
func (s *UserStore) CreateUser(ctx context.Context, database, name, loginName string) error {
	var stmt string
	if loginName == "" {
		stmt = fmt.Sprintf("CREATE USER %s WITHOUT LOGIN", quoteName(name))
	} else {
		stmt = fmt.Sprintf("CREATE USER %s FOR LOGIN %s", quoteName(name), quoteName(loginName))
	}
	return s.client.exec(ctx, "create user", useDatabase(database, stmt))
}

func (s *UserStore) SetUserDefaultSchema(ctx context.Context, database, name, schema string) error {
	stmt := fmt.Sprintf("ALTER USER %s WITH DEFAULT_SCHEMA = %s",
		quoteName(name), quoteName(schema))
	return s.client.exec(ctx, "alter user default schema", useDatabase(database, stmt))
}

func (s *UserStore) DropUser(ctx context.Context, database, name string) error {
	stmt := "DROP USER " + quoteName(name)
	return s.client.exec(ctx, "drop user", useDatabase(database, stmt))
}

const userColumns = `dp.name, dp.type, dp.default_schema_name, dp.create_date, dp.modify_date, sp.name AS login_name`

type userRow struct {
	Name          string         `db:"name"`
	Type          string         `db:"type"`
	DefaultSchema sql.NullString `db:"default_schema_name"`
	CreateDate    sql.NullTime   `db:"create_date"`
	ModifyDate    sql.NullTime   `db:"modify_date"`
	LoginName     sql.NullString `db:"login_name"`
}

func (r userRow) toModel(database string) *model.DatabaseUser {
	user := &model.DatabaseUser{
		Name:     r.Name,
		Database: database,
		Kind:     principalKind(r.Type),
	}
	if r.LoginName.Valid {
		user.LoginName = r.LoginName.String
	}
	if r.DefaultSchema.Valid {
		user.DefaultSchema = r.DefaultSchema.String
	}
	if r.CreateDate.Valid {
		user.CreatedAt = r.CreateDate.Time.Unix()
	}
	if r.ModifyDate.Valid {
		user.ModifiedAt = r.ModifyDate.Time.Unix()
	}
	return user
}

func (s *UserStore) UserExists(ctx context.Context, database, name string) (bool, error) {
	_, err := s.FetchUser(ctx, database, name)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *UserStore) FetchUser(ctx context.Context, database, name string) (*model.DatabaseUser, error) {
	query := useDatabase(database, `SELECT `+userColumns+`
		FROM sys.database_principals dp
		LEFT JOIN sys.server_principals sp ON dp.sid = sp.sid
		WHERE dp.name = @p1 AND dp.type IN ('S', 'U', 'G', 'E', 'X')`)

	var row userRow
	err := s.client.db.GetContext(ctx, &row, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, model.Remote("fetch user", err)
	}
	return row.toModel(database), nil
}

func (s *UserStore) ListUsers(ctx context.Context, database string) ([]*model.DatabaseUser, error) {
	query := useDatabase(database, `SELECT `+userColumns+`
		FROM sys.database_principals dp
		LEFT JOIN sys.server_principals sp ON dp.sid = sp.sid
		WHERE dp.type IN ('S', 'U', 'G', 'E', 'X')
		  AND dp.name NOT IN ('dbo', 'guest', 'sys', 'INFORMATION_SCHEMA')
		ORDER BY dp.name`)

	var rows []userRow
	if err := s.client.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, model.Remote("list users", err)
	}

	users := make([]*model.DatabaseUser, len(rows))
	for i, r := range rows {
		users[i] = r.toModel(database)
	}
	return users, nil
}
