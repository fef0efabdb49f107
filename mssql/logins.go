package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mssentry/mssentry/model"
)

// LoginSpec is the shape of one CREATE LOGIN command.
type LoginSpec struct {
	Name            string
	Kind            model.PrincipalKind
	Password        string // SQL logins only
	DefaultDatabase string
}

type LoginStore struct {
	client *Client
}

func NewLoginStore(client *Client) *LoginStore {
	return &LoginStore{client: client}
}

func (s *LoginStore) CreateLogin(ctx context.Context, spec LoginSpec) error {
	var stmt string
	switch spec.Kind {
	case model.KindSQL:
		stmt = fmt.Sprintf("CREATE LOGIN %s WITH PASSWORD = %s",
			quoteName(spec.Name), quoteLiteral(spec.Password))
		if spec.DefaultDatabase != "" {
			stmt += ", DEFAULT_DATABASE = " + quoteName(spec.DefaultDatabase)
		}
	case model.KindWindows:
		stmt = fmt.Sprintf("CREATE LOGIN %s FROM WINDOWS", quoteName(spec.Name))
		if spec.DefaultDatabase != "" {
			stmt += " WITH DEFAULT_DATABASE = " + quoteName(spec.DefaultDatabase)
		}
	case model.KindExternal:
		stmt = fmt.Sprintf("CREATE LOGIN %s FROM EXTERNAL PROVIDER", quoteName(spec.Name))
	default:
		return model.Remote("create login", fmt.Errorf("unsupported login kind %q", spec.Kind))
	}
	return s.client.exec(ctx, "create login", stmt)
}

func (s *LoginStore) AlterLoginPassword(ctx context.Context, name, password string) error {
	stmt := fmt.Sprintf("ALTER LOGIN %s WITH PASSWORD = %s",
		quoteName(name), quoteLiteral(password))
	return s.client.exec(ctx, "alter login password", stmt)
}

func (s *LoginStore) SetLoginEnabled(ctx context.Context, name string, enabled bool) error {
	action := "DISABLE"
	if enabled {
		action = "ENABLE"
	}
	stmt := fmt.Sprintf("ALTER LOGIN %s %s", quoteName(name), action)
	return s.client.exec(ctx, "alter login enable", stmt)
}

func (s *LoginStore) SetLoginDefaultDatabase(ctx context.Context, name, database string) error {
	stmt := fmt.Sprintf("ALTER LOGIN %s WITH DEFAULT_DATABASE = %s",
		quoteName(name), quoteName(database))
	return s.client.exec(ctx, "alter login default database", stmt)
}

func (s *LoginStore) DropLogin(ctx context.Context, name string) error {
	return s.client.exec(ctx, "drop login", "DROP LOGIN "+quoteName(name))
}

const loginColumns = `name, type, is_disabled, default_database_name, create_date, modify_date`

type loginRow struct {
	Name            string       `db:"name"`
	Type            string       `db:"type"`
	IsDisabled      bool         `db:"is_disabled"`
	DefaultDatabase sql.NullString `db:"default_database_name"`
	CreateDate      sql.NullTime `db:"create_date"`
	ModifyDate      sql.NullTime `db:"modify_date"`
}

func (r loginRow) toModel() *model.Login {
	login := &model.Login{
		Name:    r.Name,
		Kind:    principalKind(r.Type),
		Enabled: !r.IsDisabled,
	}
	if r.DefaultDatabase.Valid {
		login.DefaultDatabase = r.DefaultDatabase.String
	}
	if r.CreateDate.Valid {
		login.CreatedAt = r.CreateDate.Time.Unix()
	}
	if r.ModifyDate.Valid {
		login.ModifiedAt = r.ModifyDate.Time.Unix()
	}
	return login
}

func (s *LoginStore) LoginExists(ctx context.Context, name string) (bool, error) {
	_, err := s.FetchLogin(ctx, name)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FetchLogin re-reads the login from the server catalog.
func (s *LoginStore) FetchLogin(ctx context.Context, name string) (*model.Login, error) {
	query := `SELECT ` + loginColumns + `
		FROM sys.server_principals
		WHERE name = @p1 AND type IN ('S', 'U', 'G', 'E', 'X')`

	var row loginRow
	err := s.client.db.GetContext(ctx, &row, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, model.Remote("fetch login", err)
	}
	return row.toModel(), nil
}

func (s *LoginStore) ListLogins(ctx context.Context) ([]*model.Login, error) {
	query := `SELECT ` + loginColumns + `
		FROM sys.server_principals
		WHERE type IN ('S', 'U', 'G', 'E', 'X') AND name NOT LIKE '##%##'
		ORDER BY name`

	var rows []loginRow
	if err := s.client.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, model.Remote("list logins", err)
	}

	logins := make([]*model.Login, len(rows))
	for i, r := range rows {
		logins[i] = r.toModel()
	}
	return logins, nil
}

func principalKind(catalogType string) model.PrincipalKind {
	switch catalogType {
	case "S":
		return model.KindSQL
	case "U", "G":
		return model.KindWindows
	default:
		return model.KindExternal
	}
}
