package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/mssentry/mssentry/model"
)

const (
	DefaultConfigFile = "mssentry.yaml"
	DefaultListen     = ":8373"
	DefaultAuditPath  = "mssentry-audit.db"
	DefaultLogLevel   = "info"
)

type Config struct {
	// Listen is the REST listen address.
	Listen string `json:"listen"`
	// DSN is the sqlserver connection string of the administered
	// instance. The login behind it needs securityadmin or higher.
	DSN string `json:"dsn"`
	// ServerInstance names the administered instance in audit records.
	ServerInstance string `json:"server_instance"`
	// Databases lists the databases whose users and roles are managed.
	Databases []string `json:"databases"`
	// AuditPath is the sqlite file holding the operation trail.
	AuditPath string `json:"audit_path"`
	LogLevel  string `json:"log_level"`
}

func Load(fileName string) (Config, error) {
	if fileName == "" {
		fileName = DefaultConfigFile
	}
	cfg, err := loadFromFile(fileName)
	if err != nil {
		return Config{}, fmt.Errorf("load config %q: %w", fileName, err)
	}
	if cfg == nil {
		cfg = &Config{}
	}

	cfg.Listen = firstNonEmpty(cfg.Listen, os.Getenv("MSSENTRY_LISTEN"), DefaultListen)
	cfg.DSN = firstNonEmpty(cfg.DSN, os.Getenv("MSSENTRY_DSN"))
	cfg.ServerInstance = firstNonEmpty(cfg.ServerInstance, os.Getenv("MSSENTRY_SERVER_INSTANCE"))
	cfg.AuditPath = firstNonEmpty(cfg.AuditPath, os.Getenv("MSSENTRY_AUDIT_PATH"), DefaultAuditPath)
	cfg.LogLevel = firstNonEmpty(cfg.LogLevel, os.Getenv("MSSENTRY_LOG_LEVEL"), DefaultLogLevel)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return *cfg, nil
}

func loadFromFile(fileName string) (*Config, error) {
	f, err := os.Open(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	return LoadFromReader(f)
}

func LoadFromReader(r io.Reader) (*Config, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	if buf.Len() == 0 {
		return nil, nil
	}

	cfg := new(Config)
	if err := yaml.Unmarshal(buf.Bytes(), cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DSN == "" {
		return model.Validationf("dsn is required")
	}
	if c.ServerInstance == "" {
		return model.Validationf("server_instance is required")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
