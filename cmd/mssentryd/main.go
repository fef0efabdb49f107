package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/mssentry/mssentry/audit"
	"github.com/mssentry/mssentry/backend"
	"github.com/mssentry/mssentry/config"
	"github.com/mssentry/mssentry/memstore"
	"github.com/mssentry/mssentry/mssql"
	"github.com/mssentry/mssentry/observe"
	"github.com/mssentry/mssentry/repo"
	"github.com/mssentry/mssentry/usecase"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "mssentryd",
		Short: "SQL Server principal lifecycle daemon",
		Long: `mssentryd administers logins, database users, roles, memberships and
permission grants on one SQL Server instance, keeps a local tracking
mirror and writes a durable audit trail of every operation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
		SilenceUsage: true,
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the yaml config file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "mssentryd",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	client, err := mssql.NewClient(cfg.DSN, logger)
	if err != nil {
		return fmt.Errorf("connect %q: %w", cfg.ServerInstance, err)
	}
	defer client.Close()

	auditLog, err := audit.NewSqliteLog(cfg.AuditPath)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer auditLog.Close()
	if err := auditLog.Migrate(); err != nil {
		return fmt.Errorf("migrate audit log: %w", err)
	}

	schema, err := repo.GetSchema()
	if err != nil {
		return fmt.Errorf("build mirror schema: %w", err)
	}
	store, err := memstore.NewMemoryStore(schema, logger)
	if err != nil {
		return fmt.Errorf("init mirror: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	deps := &usecase.Deps{
		Store:          store,
		Logins:         mssql.NewLoginStore(client),
		Users:          mssql.NewUserStore(client),
		Roles:          mssql.NewRoleStore(client),
		Permissions:    mssql.NewPermissionStore(client),
		Audit:          auditLog,
		Metrics:        observe.NewMetrics(registry),
		Logger:         logger,
		ServerInstance: cfg.ServerInstance,
		Databases:      cfg.Databases,
	}

	if err := usecase.Seed(context.Background(), deps); err != nil {
		return fmt.Errorf("seed mirror: %w", err)
	}

	router := backend.NewAPI(deps).Router(registry)
	logger.Info("listening", "addr", cfg.Listen, "server", cfg.ServerInstance)
	return router.Run(cfg.Listen)
}
