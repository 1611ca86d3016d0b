package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the root application configuration.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`   // HTTP listener settings.
	Database DatabaseConfig `yaml:"database"` // Database DSN.
	Redis    RedisConfig    `yaml:"redis"`    // Optional cache settings.
	JWT      JWTConfig      `yaml:"jwt"`      // Token settings.
	Logging  LoggingConfig  `yaml:"logging"`  // Log level and rotation.
	Admin    AdminConfig    `yaml:"admin"`    // Seed admin account.
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"` // Bind host, empty for all interfaces.
	Port int    `yaml:"port"` // Bind port.
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds the database DSN. Both PostgreSQL and SQLite DSNs are
// accepted; the dialect is inferred from the DSN shape.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig holds optional Redis cache settings. An empty address selects
// the in-process cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret      string        `yaml:"secret"`
	TokenExpiry time.Duration `yaml:"token_expiry"`
}

// UnmarshalYAML decodes token_expiry from a duration string like "24h".
func (j *JWTConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Secret      string `yaml:"secret"`
		TokenExpiry string `yaml:"token_expiry"`
	}
	if errDecode := value.Decode(&raw); errDecode != nil {
		return errDecode
	}
	if raw.Secret != "" {
		j.Secret = raw.Secret
	}
	if raw.TokenExpiry != "" {
		d, errParse := time.ParseDuration(raw.TokenExpiry)
		if errParse != nil {
			return fmt.Errorf("config: parse jwt token_expiry: %w", errParse)
		}
		j.TokenExpiry = d
	}
	return nil
}

// LoggingConfig holds log level and optional file rotation settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`       // logrus level name.
	File       string `yaml:"file"`        // Log file path, empty for stdout only.
	MaxSizeMB  int    `yaml:"max_size_mb"` // Rotate after this many megabytes.
	MaxBackups int    `yaml:"max_backups"` // Rotated files to keep.
	MaxAgeDays int    `yaml:"max_age_days"`
}

// AdminConfig holds the seed administrator credentials.
type AdminConfig struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// Load reads the YAML config at path (when it exists) and applies environment
// overrides. Environment variables win over file values.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			DSN: "data/medireturn.db",
		},
		JWT: JWTConfig{
			TokenExpiry: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Admin: AdminConfig{
			Name:  "Administrator",
			Email: "admin@medireturn.local",
		},
	}

	if strings.TrimSpace(path) != "" {
		data, errRead := os.ReadFile(path)
		if errRead != nil {
			if !os.IsNotExist(errRead) {
				return nil, fmt.Errorf("config: read %s: %w", path, errRead)
			}
		} else if errParse := yaml.Unmarshal(data, cfg); errParse != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, errParse)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("config: jwt secret is required (set jwt.secret or MEDIRETURN_JWT_SECRET)")
	}
	if cfg.JWT.TokenExpiry <= 0 {
		cfg.JWT.TokenExpiry = 24 * time.Hour
	}
	return cfg, nil
}

// applyEnvOverrides layers MEDIRETURN_* environment variables over cfg.
func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("MEDIRETURN_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("MEDIRETURN_PORT"); v != "" {
		if port, errParse := strconv.Atoi(v); errParse == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MEDIRETURN_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("MEDIRETURN_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("MEDIRETURN_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("MEDIRETURN_REDIS_DB"); v != "" {
		if n, errParse := strconv.Atoi(v); errParse == nil {
			cfg.Redis.DB = n
		}
	}
	if v := os.Getenv("MEDIRETURN_JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("MEDIRETURN_JWT_EXPIRY"); v != "" {
		if d, errParse := time.ParseDuration(v); errParse == nil {
			cfg.JWT.TokenExpiry = d
		}
	}
	if v := os.Getenv("MEDIRETURN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("MEDIRETURN_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
	if v := os.Getenv("MEDIRETURN_ADMIN_EMAIL"); v != "" {
		cfg.Admin.Email = v
	}
	if v := os.Getenv("MEDIRETURN_ADMIN_PASSWORD"); v != "" {
		cfg.Admin.Password = v
	}
}
