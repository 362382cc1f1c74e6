// Package config declares the application's environment-driven
// configuration. Each concern lives in its own file: auth.go,
// database.go, http.go, services.go, observability.go. Values load
// through github.com/caarlos0/env; every field documents its variable
// via the env struct tag.
package config

import (
	"os"
	"strings"
)

// AppConfig composes the per-concern configuration structs.
type AppConfig struct {
	// IsDev switches on development behavior: the dev auth provider
	// becomes available and logging gets more verbose. DEV=true or
	// NODE_ENV=development both enable it.
	IsDev bool `env:"DEV" envDefault:"false"`

	Auth AuthConfig

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`
	Cache    CacheConfig

	HTTP HTTPConfig

	// Services selects which long-running services this process hosts
	// (HTTP API, candidate expiry sweeper) and their settings.
	Services ServicesConfig

	Observability ObservabilityConfig
}

// Sanitize normalizes loaded values and must run once after env parsing,
// before anything reads the config.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Services.Sanitize()
	c.Observability.Sanitize()
	c.detectDevMode()
}

// detectDevMode falls back to NODE_ENV when DEV is unset, since local
// tooling around the dashboard commonly exports NODE_ENV=development.
func (c *AppConfig) detectDevMode() {
	if c.IsDev {
		return
	}
	nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
	c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return c.Services.GetEnabledServices()
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	return c.Services.IsHTTPServerEnabled()
}

// IsExpiryEnabled returns true if the candidate expiry sweeper is enabled.
func (c *AppConfig) IsExpiryEnabled() bool {
	return c.Services.IsExpiryEnabled()
}
