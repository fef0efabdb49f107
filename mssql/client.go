// Package mssql executes administrative commands against the target
// SQL Server instance. Every exported method is a single remote call;
// composition and failure handling live in the orchestrator.
package mssql

import (
	"context"
	"strings"

	log "github.com/hashicorp/go-hclog"
	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/mssentry/mssentry/model"
)

type Client struct {
	db     *sqlx.DB
	logger log.Logger
}

func NewClient(dsn string, logger log.Logger) (*Client, error) {
	db, err := sqlx.Open("sqlserver", dsn)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNullLogger()
	}
	return &Client{db: db, logger: logger.Named("mssql")}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) Close() error {
	return c.db.Close()
}

// exec runs one DDL batch. desc is a short human description carried
// into the RemoteError; the statement text stays out of errors because
// it may embed password literals.
func (c *Client) exec(ctx context.Context, desc, stmt string) error {
	if _, err := c.db.ExecContext(ctx, stmt); err != nil {
		c.logger.Error("remote command failed", "command", desc, "err", err)
		return model.Remote(desc, err)
	}
	return nil
}

// quoteName renders a bracketed identifier, QUOTENAME-style.
func quoteName(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// quoteLiteral renders a single-quoted string literal.
func quoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// useDatabase prefixes a statement so it runs in the named database.
func useDatabase(database, stmt string) string {
	return "USE " + quoteName(database) + "; " + stmt
}
