package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ServiceMode names one long-running service this process can host.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeExpiry runs the candidate expiry sweeper.
	ServiceModeExpiry ServiceMode = "expiry"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{ServiceModeHTTP, ServiceModeExpiry}
}

// ParseServices parses the comma-delimited SERVICES value into the set
// of enabled services. Blank entries are skipped; an unknown name or an
// effectively empty list is an error.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	if servicesStr == "" {
		return nil, errors.New("at least one service must be specified")
	}

	services := make(map[ServiceMode]bool)
	for _, part := range strings.Split(servicesStr, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		mode := ServiceMode(name)
		if !slices.Contains(ValidServiceModes(), mode) {
			return nil, fmt.Errorf("invalid service name: %q (valid options: http, expiry)", name)
		}
		services[mode] = true
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}
	return services, nil
}

// ExpiryConfig configures the candidate expiry sweeper.
type ExpiryConfig struct {
	// Interval is the sweeper tick interval.
	Interval time.Duration `env:"EXPIRY_INTERVAL" envDefault:"15m"`

	// BatchSize is the maximum number of candidates to expire per pass.
	// Batching keeps row locks short on large candidate tables.
	BatchSize int `env:"EXPIRY_BATCH_SIZE" envDefault:"500"`
}

// Sanitize clamps the interval and batch size to sane bounds. Intervals
// under a minute would hammer the candidates table for no benefit.
func (e *ExpiryConfig) Sanitize() {
	if e.Interval < 1*time.Minute {
		e.Interval = 1 * time.Minute
	}
	e.BatchSize = min(max(e.BatchSize, 1), 10000)
}

// AuthzConfig holds authorization settings that are deployment-specific
// rather than derived from the IdP.
type AuthzConfig struct {
	// RootLodgeID is the district root lodge; district-admin promotions
	// assign a role entry there. Empty disables the assignment.
	RootLodgeID string `env:"AUTHZ_ROOT_LODGE_ID"`
}

// ServicesConfig selects the hosted services and their settings.
type ServicesConfig struct {
	// Services is a comma-delimited list of enabled services.
	// Valid values: http, expiry
	Services string `env:"SERVICES" envDefault:"http" yaml:"services"`

	Expiry ExpiryConfig

	Authz AuthzConfig
}

// GetEnabledServices returns the enabled services based on the Services field.
func (s *ServicesConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(s.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (s *ServicesConfig) IsHTTPServerEnabled() bool {
	return s.isEnabled(ServiceModeHTTP)
}

// IsExpiryEnabled returns true if the candidate expiry sweeper is enabled.
func (s *ServicesConfig) IsExpiryEnabled() bool {
	return s.isEnabled(ServiceModeExpiry)
}

func (s *ServicesConfig) isEnabled(mode ServiceMode) bool {
	services, err := s.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[mode]
}

// Sanitize applies guardrails to services configuration values.
func (s *ServicesConfig) Sanitize() {
	s.Expiry.Sanitize()
}
