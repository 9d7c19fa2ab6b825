package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DatabaseType selects the gorm dialector.
type DatabaseType string

const (
	DatabaseTypeSQLite     DatabaseType = "sqlite"
	DatabaseTypePostgreSQL DatabaseType = "postgres"
)

// DatabaseConfig is the market database connection. Only the section
// matching Type is read.
type DatabaseConfig struct {
	Type     DatabaseType   `json:"type"`
	SQLite   SQLiteConfig   `json:"sqlite"`
	Postgres PostgresConfig `json:"postgres"`
}

type SQLiteConfig struct {
	Path string `json:"path"`
}

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
	TimeZone string `json:"timeZone"`
}

// sqlitePragmas turn on WAL and foreign keys, so supply and price rows
// cannot point at missing farmers, crops or markets.
var sqlitePragmas = url.Values{
	"_journal_mode": {"WAL"},
	"_synchronous":  {"NORMAL"},
	"_foreign_keys": {"on"},
}

// GetDSN returns the driver connection string for c.Type.
func (c *DatabaseConfig) GetDSN() string {
	if c.IsPostgreSQL() {
		p := c.Postgres
		pairs := []string{
			"host=" + p.Host,
			"user=" + p.Username,
			"password=" + p.Password,
			"dbname=" + p.Database,
			fmt.Sprintf("port=%d", p.Port),
			"sslmode=" + p.SSLMode,
			"TimeZone=" + p.TimeZone,
		}
		return strings.Join(pairs, " ")
	}
	return c.SQLite.Path + "?" + sqlitePragmas.Encode()
}

// ValidateConfig reports every missing or out of range setting at once.
func (c *DatabaseConfig) ValidateConfig() error {
	var errs []error
	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLite.Path == "" {
			errs = append(errs, errors.New("sqlite: db path is required"))
		}
	case DatabaseTypePostgreSQL:
		p := c.Postgres
		for name, value := range map[string]string{"host": p.Host, "database": p.Database, "username": p.Username} {
			if value == "" {
				errs = append(errs, fmt.Errorf("postgres: %s is required", name))
			}
		}
		if p.Port < 1 || p.Port > 65535 {
			errs = append(errs, fmt.Errorf("postgres: port %d out of range", p.Port))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported database type %q", c.Type))
	}
	return errors.Join(errs...)
}

func (c *DatabaseConfig) IsPostgreSQL() bool { return c.Type == DatabaseTypePostgreSQL }

func (c *DatabaseConfig) IsSQLite() bool { return c.Type == DatabaseTypeSQLite }

// EnsureDirectoryExists creates the folder holding the sqlite file.
func (c *DatabaseConfig) EnsureDirectoryExists() error {
	if !c.IsSQLite() {
		return nil
	}
	return os.MkdirAll(filepath.Dir(c.SQLite.Path), 0o750)
}
