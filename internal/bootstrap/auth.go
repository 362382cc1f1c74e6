package bootstrap

import (
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/lodgeworks/lodge-api/config"
	"github.com/lodgeworks/lodge-api/internal/adapters/authroles"
	"github.com/lodgeworks/lodge-api/internal/adapters/devauth"
	"github.com/lodgeworks/lodge-api/internal/adapters/oidc"
	redisadapter "github.com/lodgeworks/lodge-api/internal/adapters/redis"
	"github.com/lodgeworks/lodge-api/internal/core"
	"github.com/lodgeworks/lodge-api/internal/ports"
	"github.com/lodgeworks/lodge-api/internal/service"
)

// AuthConfig carries everything BuildAuthService needs to wire login.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	// Members enriches sessions with the member row matching the login email.
	Members core.MemberRepository
	Logger  *slog.Logger
}

// BuildAuthService assembles the auth service for the configured mode.
// Any missing piece (no Redis, incomplete provider config) disables
// auth with a warning instead of failing startup, since the rest of the
// API can still serve unauthenticated health and readiness traffic.
func BuildAuthService(cfg AuthConfig) *service.AuthService {
	if cfg.RedisClient == nil {
		warn(cfg.Logger, "auth service disabled: redis client not configured", "mode", cfg.Auth.Mode)
		return nil
	}

	provider := buildAuthProvider(cfg)
	if provider == nil {
		return nil
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider: provider,
		Sessions: redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, "session:"),
		Roles: authroles.StaticMapper{
			SuperAdminGroup:    cfg.Auth.SuperAdminGroup,
			DistrictAdminGroup: cfg.Auth.DistrictAdminGroup,
			MemberGroup:        cfg.Auth.MemberGroup,
		},
		Members: cfg.Members,
		Logger:  cfg.Logger,
	})
}

//nolint:ireturn // callers program against the provider port.
func buildAuthProvider(cfg AuthConfig) ports.AuthProvider {
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		prov, err := devauth.NewProvider(devauth.Config{
			UserID: cfg.Auth.DevAuth.UserID,
			Email:  cfg.Auth.DevAuth.Email,
			Groups: cfg.Auth.DevAuth.Groups,
		})
		if err != nil {
			warn(cfg.Logger, "failed to create dev auth provider, auth disabled", "error", err)
			return nil
		}
		return prov

	case config.AuthModeOAuth:
		oauth := cfg.Auth.OAuth
		if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
			warn(cfg.Logger, "oauth mode selected but required config missing; auth disabled",
				"discovery_url_empty", oauth.DiscoveryURL == "",
				"client_id_empty", oauth.ClientID == "",
				"client_secret_empty", oauth.ClientSecret == "",
			)
			return nil
		}
		prov, err := oidc.NewProvider(oidc.ProviderConfig{
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			RedirectURL:  oauth.RedirectURL,
			Scope:        oauth.Scope,
			DiscoveryURL: oauth.DiscoveryURL,
			LogoutURL:    oauth.LogoutURL,
		})
		if err != nil {
			warn(cfg.Logger, "failed to create OIDC provider, auth disabled", "error", err)
			return nil
		}
		return prov

	default:
		return nil
	}
}

func warn(logger *slog.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Warn(msg, args...)
	}
}
