// Package ports defines the seams between the auth service and its
// pluggable pieces. Adapters under internal/adapters implement them;
// internal/service orchestrates them.
package ports

import (
	"context"

	domainauth "github.com/lodgeworks/lodge-api/internal/domain/auth"
)

// AuthProvider runs a login flow against an identity provider.
type AuthProvider interface {
	// Begin starts the flow and returns the provider auth URL together
	// with the opaque state and nonce the callback must present.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the flow and returns the verified identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// BeginInput carries the inputs for starting a login flow.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput carries the callback parameters for the code exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// SessionStore persists login sessions between requests.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// RoleMapping is the authority a member holds inside the application,
// derived from identity provider group claims. Lodge-level grants are
// keyed by lodge ID.
type RoleMapping struct {
	GlobalRole           domainauth.Role
	LodgeRoles           map[string]domainauth.Role
	AdministeredLodgeIDs []string
}

// RoleMapper turns the IdP group list into application roles. Role
// claims supplied by the client never reach this path.
type RoleMapper interface {
	Map(groups []string) RoleMapping
}
