package config

import (
	"fmt"
	"strings"
)

// AuthMode selects the login provider.
type AuthMode string

const (
	// AuthModeOAuth authenticates against an OIDC identity provider.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock signs in a fixed local identity. Development only.
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText lets env parsing reject unknown modes early instead of
// silently disabling auth at wiring time.
func (a *AuthMode) UnmarshalText(text []byte) error {
	switch v := strings.ToLower(string(text)); v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"lodge-api"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:"lodge-api"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	LogoutURL    string `env:"LOGOUT_URL"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID string   `env:"USER_ID" envDefault:"dev-user"`
	Email  string   `env:"EMAIL"   envDefault:"dev@example.org"`
	Groups []string `env:"GROUPS"  envDefault:"lodge-district-admins" envSeparator:";"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// SuperAdminGroup is the IdP group granting platform-wide administration.
	SuperAdminGroup string `env:"SUPER_ADMIN_GROUP,required"`

	// DistrictAdminGroup is the IdP group granting district administration.
	DistrictAdminGroup string `env:"DISTRICT_ADMIN_GROUP,required"`

	// MemberGroup is the IdP group for regular lodge members. Per-lodge
	// grants additionally arrive as groups shaped "lodge:<id>:admin".
	MemberGroup string `env:"MEMBER_GROUP,required"`
}
