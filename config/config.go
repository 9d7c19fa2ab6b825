// Package config exposes the runtime configuration of the agri-intel server.
// Values come from AGRI_* environment variables (optionally seeded from a .env
// file in the working directory) with sane defaults for a single-node install.
package config

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

// SessionStore names the backend used for the session namespaces.
type SessionStore string

const (
	SessionStoreCookie SessionStore = "cookie"
	SessionStoreMemory SessionStore = "memory"
)

const envPrefix = "AGRI"

var (
	v        *viper.Viper
	loadOnce sync.Once
)

func get() *viper.Viper {
	loadOnce.Do(func() {
		// .env is optional; real environment variables always win.
		_ = godotenv.Load()

		v = viper.New()
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
		setDefaults(v)
	})
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("log_level", string(Info))
	v.SetDefault("log_folder", "/var/log/agri-intel")
	v.SetDefault("db_type", string(DatabaseTypeSQLite))
	v.SetDefault("db_folder", "/etc/agri-intel")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432)
	v.SetDefault("db_name", "agri_intel")
	v.SetDefault("db_user", "agri_intel")
	v.SetDefault("db_password", "")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_timezone", "UTC")
	v.SetDefault("listen", "")
	v.SetDefault("port", 8080)
	v.SetDefault("web_domain", "")
	v.SetDefault("cert_file", "")
	v.SetDefault("key_file", "")
	v.SetDefault("session_secret", "")
	v.SetDefault("session_store", string(SessionStoreCookie))
	v.SetDefault("session_max_age", 60)
	v.SetDefault("cookie_secure", false)
	v.SetDefault("cookie_domain", "")
	v.SetDefault("bcrypt_cost", bcrypt.DefaultCost)
	v.SetDefault("time_location", "Local")
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := get().GetString("log_level")
	if logLevel == "" {
		return Info
	}
	return LogLevel(strings.ToLower(logLevel))
}

func IsDebug() bool {
	return get().GetBool("debug")
}

func GetLogFolder() string {
	return get().GetString("log_folder")
}

func GetDBFolderPath() string {
	return get().GetString("db_folder")
}

// GetDBPath returns the sqlite file path. AGRI_DB_PATH overrides the
// folder/name default.
func GetDBPath() string {
	if p := get().GetString("db_path"); p != "" {
		return p
	}
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), GetName())
}

// GetDatabaseConfig assembles the database settings from the environment.
func GetDatabaseConfig() *DatabaseConfig {
	c := get()
	return &DatabaseConfig{
		Type: DatabaseType(strings.ToLower(c.GetString("db_type"))),
		SQLite: SQLiteConfig{
			Path: GetDBPath(),
		},
		Postgres: PostgresConfig{
			Host:     c.GetString("db_host"),
			Port:     c.GetInt("db_port"),
			Database: c.GetString("db_name"),
			Username: c.GetString("db_user"),
			Password: c.GetString("db_password"),
			SSLMode:  c.GetString("db_sslmode"),
			TimeZone: c.GetString("db_timezone"),
		},
	}
}

// WebConfig holds the listener, cookie and session settings of the web server.
type WebConfig struct {
	Listen        string
	Port          int
	Domain        string
	CertFile      string
	KeyFile       string
	SessionSecret string
	SessionStore  SessionStore
	SessionMaxAge int // minutes
	CookieSecure  bool
	CookieDomain  string
	TimeLocation  string
}

func GetWebConfig() *WebConfig {
	c := get()
	return &WebConfig{
		Listen:        c.GetString("listen"),
		Port:          c.GetInt("port"),
		Domain:        c.GetString("web_domain"),
		CertFile:      c.GetString("cert_file"),
		KeyFile:       c.GetString("key_file"),
		SessionSecret: c.GetString("session_secret"),
		SessionStore:  SessionStore(strings.ToLower(c.GetString("session_store"))),
		SessionMaxAge: c.GetInt("session_max_age"),
		CookieSecure:  c.GetBool("cookie_secure"),
		CookieDomain:  c.GetString("cookie_domain"),
		TimeLocation:  c.GetString("time_location"),
	}
}

// GetBcryptCost returns the configured bcrypt work factor, clamped to the
// range bcrypt accepts. Raising it only affects newly created hashes.
func GetBcryptCost() int {
	cost := get().GetInt("bcrypt_cost")
	if cost < bcrypt.MinCost {
		return bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		return bcrypt.MaxCost
	}
	return cost
}
