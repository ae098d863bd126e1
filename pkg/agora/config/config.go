// Package config loads agora's runtime configuration from the environment,
// an optional .env file and an optional config.yml.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultSecret is only acceptable outside production.
const DefaultSecret = "agora-dev-secret-change-in-production"

// Config holds application configuration values.
type Config struct {
	Env  string `mapstructure:"APP_ENV"`
	Host string `mapstructure:"HOST"`
	Port string `mapstructure:"PORT"`

	DBDriver                 string `mapstructure:"DB_DRIVER"`
	DBDSN                    string `mapstructure:"DB_DSN"`
	DBMaxOpenConns           int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns           int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	AuthSecretKey          string `mapstructure:"AUTH_SECRET_KEY"`
	AuthAlgorithm          string `mapstructure:"AUTH_ALGORITHM"`
	AuthTokenExpireMinutes int    `mapstructure:"AUTH_ACCESS_TOKEN_EXPIRE_MINUTES"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
}

var supportedAlgorithms = map[string]bool{"HS256": true, "HS384": true, "HS512": true}

// Load reads .env (if present), then config.yml (if present), then the
// process environment, and validates the result.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", "8000")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "agora.db?_foreign_keys=on")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	v.SetDefault("AUTH_SECRET_KEY", DefaultSecret)
	v.SetDefault("AUTH_ALGORITHM", "HS256")
	v.SetDefault("AUTH_ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("ALLOWED_ORIGINS", "*")
}

// Validate ensures required values are present and sane.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.AuthSecretKey == "" {
		return errors.New("AUTH_SECRET_KEY is required")
	}
	if !supportedAlgorithms[strings.ToUpper(c.AuthAlgorithm)] {
		return fmt.Errorf("AUTH_ALGORITHM %q is not supported", c.AuthAlgorithm)
	}
	if c.AuthTokenExpireMinutes <= 0 {
		return errors.New("AUTH_ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER %q is not supported", c.DBDriver)
	}
	if c.DBDSN == "" {
		return errors.New("DB_DSN is required")
	}

	if c.IsProduction() {
		if c.AuthSecretKey == DefaultSecret {
			return errors.New("AUTH_SECRET_KEY must be changed from the default value in production")
		}
		if len(c.AuthSecretKey) < 32 {
			return errors.New("AUTH_SECRET_KEY must be at least 32 characters in production")
		}
		if c.AllowedOrigins == "*" {
			slog.Warn("ALLOWED_ORIGINS is '*' in production")
		}
	}
	return nil
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// TokenTTL is the access token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.AuthTokenExpireMinutes) * time.Minute
}

// ConnMaxLifetime is the maximum time a pooled connection is reused.
func (c *Config) ConnMaxLifetime() time.Duration {
	return time.Duration(c.DBConnMaxLifetimeMinutes) * time.Minute
}

// Origins splits ALLOWED_ORIGINS into a list. "*" yields nil.
func (c *Config) Origins() []string {
	if strings.TrimSpace(c.AllowedOrigins) == "*" {
		return nil
	}
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
