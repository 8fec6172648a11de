// Package config loads service configuration from environment variables
// using github.com/caarlos0/env. See the individual structs for available
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// AppConfig is the main application configuration.
type AppConfig struct {
	// Environment selects runtime behavior; "production" hardens cookie
	// and verification settings.
	Environment string `env:"APP_ENV" envDefault:"development"`

	HTTP  HTTPConfig  `envPrefix:"HTTP_"`
	Mongo MongoConfig `envPrefix:"MONGODB_"`
	Auth  AuthConfig
}

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"ADDR" envDefault:":8080"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// MongoConfig contains document store configuration.
type MongoConfig struct {
	URI      string `env:"URI" envDefault:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" envDefault:"ident"`

	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
}

// AuthConfig groups authentication configuration.
type AuthConfig struct {
	// SigningSecret signs session tokens. Required; the process refuses to
	// start without it.
	SigningSecret string `env:"JWT_SECRET,required"`

	// Issuer is embedded in issued tokens.
	Issuer string `env:"JWT_ISSUER" envDefault:"go-ident"`

	// TurnstileSecret is the Cloudflare siteverify secret.
	TurnstileSecret string `env:"TURNSTILE_SECRET_KEY"`

	// SkipHumanVerification treats the challenge as automatically
	// satisfied. Development escape hatch only; Sanitize forces it off in
	// production.
	SkipHumanVerification bool `env:"SKIP_HUMAN_VERIFICATION" envDefault:"false"`
}

// Load parses the environment and applies guardrails.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Sanitize()
	return cfg, nil
}

// Sanitize applies guardrails to values loaded from env.
func (c *AppConfig) Sanitize() {
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.Mongo.ConnectTimeout <= 0 {
		c.Mongo.ConnectTimeout = 10 * time.Second
	}

	// The verification bypass must never survive into production.
	if c.IsProduction() {
		c.Auth.SkipHumanVerification = false
	}
}

// IsProduction reports whether the service runs with production hardening.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}
