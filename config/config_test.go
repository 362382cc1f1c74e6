package config

import (
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseServices(t *testing.T) {
	httpOnly := map[ServiceMode]bool{ServiceModeHTTP: true}
	expiryOnly := map[ServiceMode]bool{ServiceModeExpiry: true}
	both := map[ServiceMode]bool{ServiceModeHTTP: true, ServiceModeExpiry: true}

	cases := []struct {
		input   string
		want    map[ServiceMode]bool
		wantErr bool
	}{
		{input: "http", want: httpOnly},
		{input: "expiry", want: expiryOnly},
		{input: "http,expiry", want: both},
		{input: " http , expiry ", want: both},
		{input: "http,http,expiry", want: both},
		{input: "", wantErr: true},
		{input: " , , ", wantErr: true},
		{input: "http,invalid-service", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseServices(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseServices(%q): expected error, got none", tc.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseServices(%q): unexpected error: %v", tc.input, err)
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseServices(%q): got %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestConfig_ServiceEnabledMethods(t *testing.T) {
	cases := []struct {
		services   string
		wantHTTP   bool
		wantExpiry bool
	}{
		{services: "http", wantHTTP: true},
		{services: "http,expiry", wantHTTP: true, wantExpiry: true},
		{services: "expiry", wantExpiry: true},
		// An invalid list disables everything.
		{services: "invalid-service"},
	}

	for _, tc := range cases {
		cfg := AppConfig{Services: ServicesConfig{Services: tc.services}}
		if got := cfg.IsHTTPServerEnabled(); got != tc.wantHTTP {
			t.Errorf("SERVICES=%q: IsHTTPServerEnabled() = %v, want %v", tc.services, got, tc.wantHTTP)
		}
		if got := cfg.IsExpiryEnabled(); got != tc.wantExpiry {
			t.Errorf("SERVICES=%q: IsExpiryEnabled() = %v, want %v", tc.services, got, tc.wantExpiry)
		}
	}
}

func TestValidServiceModes(t *testing.T) {
	want := []ServiceMode{ServiceModeHTTP, ServiceModeExpiry}
	if got := ValidServiceModes(); !reflect.DeepEqual(got, want) {
		t.Errorf("ValidServiceModes() = %v, want %v", got, want)
	}
}

func TestAppConfig_ParseAuthEnv(t *testing.T) {
	t.Setenv("AUTH_MODE", "oauth")
	t.Setenv("SUPER_ADMIN_GROUP", "lodge-platform-admins")
	t.Setenv("DISTRICT_ADMIN_GROUP", "lodge-district-admins")
	t.Setenv("MEMBER_GROUP", "lodge-members")
	t.Setenv("OAUTH_CLIENT_ID", "app-client")
	t.Setenv("OAUTH_CLIENT_SECRET", "super-secret")
	t.Setenv("OAUTH_REDIRECT_URL", "https://lodges.example.org/auth/callback")
	t.Setenv("OAUTH_DISCOVERY_URL", "https://login.example.org/.well-known/openid-configuration")
	t.Setenv("OAUTH_SCOPE", "openid profile email")
	t.Setenv("DEV_AUTH_USER_ID", "dev-user")
	t.Setenv("DEV_AUTH_EMAIL", "dev@example.org")
	t.Setenv("DEV_AUTH_GROUPS", "lodge-members;lodge:lodge-17:admin")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}

	expected := AuthConfig{
		Mode: AuthModeOAuth,
		OAuth: OAuthConfig{
			ClientID:     "app-client",
			ClientSecret: "super-secret",
			RedirectURL:  "https://lodges.example.org/auth/callback",
			Scope:        "openid profile email",
			DiscoveryURL: "https://login.example.org/.well-known/openid-configuration",
		},
		DevAuth: DevAuthConfig{
			UserID: "dev-user",
			Email:  "dev@example.org",
			Groups: []string{"lodge-members", "lodge:lodge-17:admin"},
		},
		SuperAdminGroup:    "lodge-platform-admins",
		DistrictAdminGroup: "lodge-district-admins",
		MemberGroup:        "lodge-members",
	}

	if !reflect.DeepEqual(cfg.Auth, expected) {
		t.Fatalf("unexpected auth configuration:\nexpected: %#v\ngot:      %#v", expected, cfg.Auth)
	}
}

func TestExpiryConfig_Sanitize(t *testing.T) {
	cfg := ExpiryConfig{Interval: time.Second, BatchSize: 0}
	cfg.Sanitize()

	if cfg.Interval != time.Minute {
		t.Fatalf("expected interval clamped to 1m, got %v", cfg.Interval)
	}
	if cfg.BatchSize != 1 {
		t.Fatalf("expected batch size clamped to 1, got %d", cfg.BatchSize)
	}

	cfg = ExpiryConfig{Interval: time.Hour, BatchSize: 50000}
	cfg.Sanitize()

	if cfg.BatchSize != 10000 {
		t.Fatalf("expected batch size clamped to 10000, got %d", cfg.BatchSize)
	}
}

func TestHTTPConfig_Sanitize(t *testing.T) {
	cfg := HTTPConfig{}
	cfg.Sanitize()

	if cfg.ReadHeaderTimeout != 10*time.Second {
		t.Fatalf("expected read header timeout default, got %v", cfg.ReadHeaderTimeout)
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Fatalf("expected shutdown timeout default, got %v", cfg.ShutdownTimeout)
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
}

func TestObservabilityNotificationsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityNotificationsConfig{
		Enabled:    true,
		Timeout:    0,
		RetryLimit: -1,
		Slack: SlackNotificationConfig{
			Enabled:    true,
			WebhookURL: " ",
			Channel:    "  ",
			Username:   "",
		},
		PagerDuty: PagerDutyNotificationConfig{
			Enabled:    true,
			RoutingKey: " ",
			Source:     "",
			Component:  "",
		},
	}

	cfg.Sanitize()

	if cfg.Timeout <= 0 {
		t.Fatalf("expected timeout to fall back to default, got %v", cfg.Timeout)
	}
	if cfg.RetryLimit < 0 {
		t.Fatalf("expected retry limit to be clamped to >= 0, got %d", cfg.RetryLimit)
	}
	if cfg.Slack.Enabled {
		t.Fatal("expected slack to be disabled without a webhook url")
	}
	if cfg.PagerDuty.Enabled {
		t.Fatal("expected pagerduty to be disabled without a routing key")
	}
	if cfg.PagerDuty.Source != "lodge-api" {
		t.Fatalf("expected pagerduty source default, got %q", cfg.PagerDuty.Source)
	}
	if cfg.PagerDuty.Component != "lodge-api" {
		t.Fatalf("expected pagerduty component default, got %q", cfg.PagerDuty.Component)
	}

	// Disabled top-level should disable child sinks.
	cfg = ObservabilityNotificationsConfig{
		Enabled: false,
		Slack: SlackNotificationConfig{
			Enabled:    true,
			WebhookURL: "https://hooks.slack.com/services/test",
		},
		PagerDuty: PagerDutyNotificationConfig{
			Enabled:    true,
			RoutingKey: "abc",
		},
	}
	cfg.Sanitize()

	if cfg.Slack.Enabled {
		t.Fatal("expected slack to be disabled when top-level notifications disabled")
	}
	if cfg.PagerDuty.Enabled {
		t.Fatal("expected pagerduty to be disabled when top-level notifications disabled")
	}
}
