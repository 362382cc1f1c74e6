package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lodgeworks/lodge-api/internal/core"
	"github.com/lodgeworks/lodge-api/internal/data"
	domainauth "github.com/lodgeworks/lodge-api/internal/domain/auth"
	"github.com/lodgeworks/lodge-api/internal/ports"
)

var errSessionExpired = errors.New("session expired")

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.AuthProvider
	Sessions ports.SessionStore
	Roles    ports.RoleMapper
	// Members optionally enriches sessions with the member row matching the
	// identity's email (primary lodge, stored lodge roles).
	Members core.MemberRepository
	Logger  *slog.Logger
}

// AuthService owns the login lifecycle: it drives the provider flow,
// maps IdP groups to roles, merges stored member data, and persists the
// resulting session. The principal for every guarded request derives
// from the session this service writes; role claims presented by the
// client are never consulted.
type AuthService struct {
	provider ports.AuthProvider
	sessions ports.SessionStore
	roles    ports.RoleMapper
	members  core.MemberRepository
	logger   *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	return &AuthService{
		provider: opts.Provider,
		sessions: opts.Sessions,
		roles:    opts.Roles,
		members:  opts.Members,
		logger:   opts.Logger,
	}
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin starts an authentication flow. The returned state and
// nonce must round-trip through the client (cookies) and come back in
// CompleteLogin.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

func (in CompleteLoginInput) validate() error {
	switch {
	case in.Code == "":
		return errors.New("authorization code is required")
	case in.State == "":
		return errors.New("state parameter is required")
	case in.Nonce == "":
		return errors.New("nonce parameter is required")
	}
	return nil
}

// CompleteLoginResult contains the result of completing a login flow.
type CompleteLoginResult struct {
	Session domainauth.Session
}

// CompleteLogin exchanges the authorization code for an identity,
// builds a session from the IdP group mapping plus the member row, and
// persists it.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*CompleteLoginResult, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	session, err := s.buildSession(ctx, identity)
	if err != nil {
		return nil, err
	}
	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}
	return &CompleteLoginResult{Session: session}, nil
}

func (s *AuthService) buildSession(ctx context.Context, identity domainauth.Identity) (domainauth.Session, error) {
	mapping := s.roles.Map(identity.Groups)

	session := domainauth.Session{
		ID:                   generateSessionID(),
		UserID:               identity.UserID,
		FirstName:            identity.FirstName,
		LastName:             identity.LastName,
		Email:                identity.Email,
		Role:                 mapping.GlobalRole,
		AdministeredLodgeIDs: mapping.AdministeredLodgeIDs,
		LodgeRoles:           mapping.LodgeRoles,
		ExpiresAt:            identity.ExpiresAt,
	}
	if err := s.enrichFromMember(ctx, &session); err != nil {
		return domainauth.Session{}, err
	}

	// The stored global role is kept at the highest rank held anywhere
	// on the session.
	session.Role = session.Principal().HighestRole()
	return session, nil
}

// enrichFromMember merges the member row matching the session email into
// the session: primary lodge, administered lodges, and stored lodge roles.
// Where both the IdP mapping and the row grant a role in the same lodge,
// the higher-ranked one wins. An identity with no member row logs in with
// the mapping alone.
func (s *AuthService) enrichFromMember(ctx context.Context, session *domainauth.Session) error {
	if s.members == nil || session.Email == "" {
		return nil
	}
	member, err := s.members.GetByEmail(ctx, session.Email)
	if err != nil {
		if errors.Is(err, data.ErrMemberNotFound) {
			if s.logger != nil {
				s.logger.InfoContext(ctx, "login identity has no member row",
					"email", session.Email)
			}
			return nil
		}
		return fmt.Errorf("look up member for login: %w", err)
	}

	session.UserID = member.ID
	if member.PrimaryLodgeID != nil {
		session.PrimaryLodgeID = *member.PrimaryLodgeID
	}
	if domainauth.Rank(member.Role) > domainauth.Rank(session.Role) {
		session.Role = domainauth.Normalize(string(member.Role))
	}
	session.AdministeredLodgeIDs = mergeLodgeIDs(session.AdministeredLodgeIDs, member.AdministeredLodgeIDs)

	if len(member.LodgeRoles) > 0 {
		if session.LodgeRoles == nil {
			session.LodgeRoles = make(map[string]domainauth.Role, len(member.LodgeRoles))
		}
		for lodgeID, r := range member.LodgeRoles {
			stored := domainauth.Normalize(string(r))
			if current, ok := session.LodgeRoles[lodgeID]; !ok || domainauth.Rank(stored) > domainauth.Rank(current) {
				session.LodgeRoles[lodgeID] = stored
			}
		}
	}
	return nil
}

// GetSession loads a session by ID. An expired session is deleted on
// read rather than left for the store TTL, so a stale cookie stops
// working immediately.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if time.Now().After(session.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(errSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, errSessionExpired
	}
	return &session, nil
}

// Logout removes a session. An empty ID is a no-op, matching a logout
// request without a session cookie.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// generateSessionID returns a fresh opaque session key. UUIDs are
// URL-safe and carry enough entropy for a server-side lookup key.
func generateSessionID() string {
	return uuid.New().String()
}

func mergeLodgeIDs(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	merged := make([]string, 0, len(a)+len(b))
	for _, set := range [][]string{a, b} {
		for _, id := range set {
			if _, ok := seen[id]; ok || id == "" {
				continue
			}
			seen[id] = struct{}{}
			merged = append(merged, id)
		}
	}
	return merged
}
