package audit

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mssentry/mssentry/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const currentDatabaseVersion = 1

var ErrAlreadyCompleted = fmt.Errorf("operation already completed")

// SqliteLog persists operations in a local sqlite database. Records
// survive restarts; the in-memory mirror does not.
type SqliteLog struct {
	db *sqlx.DB
}

func NewSqliteLog(path string) (*SqliteLog, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	return &SqliteLog{db: db}, nil
}

func (l *SqliteLog) Close() error {
	return l.db.Close()
}

func (l *SqliteLog) Migrate() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}

	dbDriver, err := sqlite3.WithInstance(l.db.DB, &sqlite3.Config{})
	if err != nil {
		return err
	}

	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "audit", dbDriver)
	if err != nil {
		return err
	}

	err = migrator.Migrate(currentDatabaseVersion)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (l *SqliteLog) Begin(ctx context.Context, op model.Operation) (model.OperationID, error) {
	if op.UUID == "" {
		op.UUID = uuid.NewString()
	}
	if op.StartedAt.IsZero() {
		op.StartedAt = time.Now().UTC()
	}
	op.Status = model.OperationInProgress

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO operations (uuid, kind, resource, target, server_instance, database_name, actor, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		op.UUID, op.Kind, op.Resource, op.Target, op.ServerInstance, op.Database, op.Actor, op.Status, op.StartedAt)
	if err != nil {
		return "", err
	}
	return op.UUID, nil
}

func (l *SqliteLog) Complete(ctx context.Context, id model.OperationID, status model.OperationStatus, errMsg, details string) error {
	if status != model.OperationSuccess && status != model.OperationFailed {
		return fmt.Errorf("status %q is not terminal", status)
	}

	res, err := l.db.ExecContext(ctx, `
		UPDATE operations
		SET status = ?, finished_at = ?, error = ?, details = ?
		WHERE uuid = ? AND status = ?`,
		status, time.Now().UTC(), errMsg, details, id, model.OperationInProgress)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyCompleted, id)
	}
	return nil
}

type operationRow struct {
	UUID           string       `db:"uuid"`
	Kind           string       `db:"kind"`
	Resource       string       `db:"resource"`
	Target         string       `db:"target"`
	ServerInstance string       `db:"server_instance"`
	Database       string       `db:"database_name"`
	Actor          string       `db:"actor"`
	Status         string       `db:"status"`
	StartedAt      time.Time    `db:"started_at"`
	FinishedAt     sql.NullTime `db:"finished_at"`
	Error          string       `db:"error"`
	Details        string       `db:"details"`
}

func (r operationRow) toModel() model.Operation {
	op := model.Operation{
		UUID:           r.UUID,
		Kind:           model.OperationKind(r.Kind),
		Resource:       model.ResourceType(r.Resource),
		Target:         r.Target,
		ServerInstance: r.ServerInstance,
		Database:       r.Database,
		Actor:          r.Actor,
		Status:         model.OperationStatus(r.Status),
		StartedAt:      r.StartedAt,
		Error:          r.Error,
		Details:        r.Details,
	}
	if r.FinishedAt.Valid {
		t := r.FinishedAt.Time
		op.FinishedAt = &t
	}
	return op
}

func (l *SqliteLog) Get(ctx context.Context, id model.OperationID) (*model.Operation, error) {
	var row operationRow
	err := l.db.GetContext(ctx, &row, `SELECT * FROM operations WHERE uuid = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	op := row.toModel()
	return &op, nil
}

func (l *SqliteLog) Find(ctx context.Context, f Filter) ([]model.Operation, error) {
	where := []string{"1 = 1"}
	args := []interface{}{}

	if f.Resource != "" {
		where = append(where, "resource = ?")
		args = append(args, f.Resource)
	}
	if f.ServerInstance != "" {
		where = append(where, "server_instance = ?")
		args = append(args, f.ServerInstance)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if !f.From.IsZero() {
		where = append(where, "started_at >= ?")
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		where = append(where, "started_at < ?")
		args = append(args, f.To)
	}

	query := `SELECT * FROM operations WHERE ` + strings.Join(where, " AND ") + ` ORDER BY started_at DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	var rows []operationRow
	if err := l.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	ops := make([]model.Operation, len(rows))
	for i, r := range rows {
		ops[i] = r.toModel()
	}
	return ops, nil
}

func (l *SqliteLog) FailedSince(ctx context.Context, since time.Time) ([]model.Operation, error) {
	return l.Find(ctx, Filter{Status: model.OperationFailed, From: since})
}
