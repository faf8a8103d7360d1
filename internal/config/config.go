// Package config loads the client configuration from a TOML file with
// per-environment sections, then applies environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	// local storage
	DBPath string `toml:"db_path"`
	// remote store
	PostgresURL    string        `toml:"postgres_url"`
	ConnectTimeout time.Duration `toml:"connect_timeout"`
	EnsureSchema   bool          `toml:"ensure_schema"`
	// session
	AccessToken string `toml:"access_token"`
	JWTSecret   string `toml:"jwt_secret"`
	JWTIssuer   string `toml:"jwt_issuer"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogFormatJSON bool   `toml:"log_format_json"`
	// account used by -offline
	OfflineAccount string `toml:"offline_account"`
	// metrics
	MetricsAddr string `toml:"metrics_addr"`
	// migration screen
	ErrorPreview int `toml:"error_preview"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no [%s] section in config", env)
	}
	return cfg, nil
}

// Default is used when no config file exists.
func Default() *Config {
	return &Config{
		ConnectTimeout: 10 * time.Second,
		LogLevel:       "info",
		ErrorPreview:   3,
	}
}

// Load reads the env section from path. A missing file yields Default.
// Environment variables override file values in both cases.
func Load(path, env string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			var t Toml
			if _, err := toml.DecodeFile(path, &t); err != nil {
				return nil, fmt.Errorf("decode config %s: %w", path, err)
			}
			fileCfg, err := t.Get(env)
			if err != nil {
				return nil, err
			}
			cfg = merge(cfg, fileCfg)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	cfg.PostgresURL = getEnv("LIFTLOG_POSTGRES_URL", cfg.PostgresURL)
	cfg.AccessToken = getEnv("LIFTLOG_ACCESS_TOKEN", cfg.AccessToken)
	cfg.JWTSecret = getEnv("LIFTLOG_JWT_SECRET", cfg.JWTSecret)
	cfg.LogLevel = getEnv("LIFTLOG_LOG_LEVEL", cfg.LogLevel)
	cfg.DBPath = getEnv("LIFTLOG_DB_PATH", cfg.DBPath)
	return cfg, nil
}

func merge(base, file *Config) *Config {
	out := *file
	if out.ConnectTimeout == 0 {
		out.ConnectTimeout = base.ConnectTimeout
	}
	if out.LogLevel == "" {
		out.LogLevel = base.LogLevel
	}
	if out.ErrorPreview <= 0 {
		out.ErrorPreview = base.ErrorPreview
	}
	return &out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// DefaultPath returns ~/.config/liftlog/config.toml
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(dir, "liftlog", "config.toml")
}
