// Package config loads the control plane's process configuration from
// environment variables, the way a container-scheduled binary expects to
// be configured: no config file, no flags for anything that varies by
// deployment environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full set of environment-derived settings for the
// hypervisord process. Every field maps to an HYPERVISOR_-prefixed
// environment variable; see the envconfig tags below for exact names.
type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	PostgresDSN string `envconfig:"POSTGRES_DSN" required:"true"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	JWTSigningKey string        `envconfig:"JWT_SIGNING_KEY" required:"true"`
	JWTTTL        time.Duration `envconfig:"JWT_TTL" default:"30m"`

	ReconcileInterval time.Duration `envconfig:"RECONCILE_INTERVAL" default:"30s"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogJSON  bool   `envconfig:"LOG_JSON" default:"true"`
}

// Load reads Config from the environment. Every variable is prefixed
// HYPERVISOR_, e.g. HYPERVISOR_HTTP_ADDR.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("hypervisor", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
