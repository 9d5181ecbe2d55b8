package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port                     string `env:"PORT" envDefault:"8080"`
	AllowedOrigin            string `env:"ALLOWED_ORIGIN" envDefault:"http://127.0.0.1:5173"`
	DatabaseURL              string `env:"DATABASE_URL"`
	RedisAddr                string `env:"REDIS_ADDR"`
	RedisPassword            string `env:"REDIS_PASSWORD"`
	RedisDB                  int    `env:"REDIS_DB" envDefault:"0"`
	AuthSecret               string `env:"AUTH_SECRET"`
	AccessTokenTTLMinutes    int    `env:"ACCESS_TOKEN_TTL_MINUTES" envDefault:"480"`
	DashboardCacheTTLSeconds int    `env:"DASHBOARD_CACHE_TTL_SECONDS" envDefault:"30"`
	LogLevel                 string `env:"LOG_LEVEL" envDefault:"info"`
	BootstrapAdminName       string `env:"BOOTSTRAP_ADMIN_NAME" envDefault:"Administrador"`
	BootstrapAdminEmail      string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapAdminPassword   string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.AuthSecret = strings.TrimSpace(cfg.AuthSecret)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.BootstrapAdminEmail = strings.ToLower(strings.TrimSpace(cfg.BootstrapAdminEmail))
	if cfg.AccessTokenTTLMinutes < 1 {
		cfg.AccessTokenTTLMinutes = 480
	}
	if cfg.DashboardCacheTTLSeconds < 1 {
		cfg.DashboardCacheTTLSeconds = 30
	}
	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

func (c Config) DashboardCacheTTL() time.Duration {
	return time.Duration(c.DashboardCacheTTLSeconds) * time.Second
}

// HasBootstrapAdmin reports whether an initial admin account was configured.
func (c Config) HasBootstrapAdmin() bool {
	return c.BootstrapAdminEmail != "" && c.BootstrapAdminPassword != ""
}
