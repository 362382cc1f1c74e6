package httpx

import (
	"context"

	domainauth "github.com/lodgeworks/lodge-api/internal/domain/auth"
)

// sessionKey is the single context key the middleware and handlers
// share for the authenticated session.
type sessionKey struct{}

// SetSessionInContext attaches the session to the context. A nil
// session leaves the context untouched.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetUserSessionFromContext reports the session stored by the auth
// middleware, if any.
func GetUserSessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	if session, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok && session != nil {
		return session, true
	}
	return nil, false
}

// PrincipalFromContext derives the request principal from the session in
// context. Returns nil when the request is unauthenticated; the guard turns
// a nil principal into a NO_TOKEN denial, so handlers can pass it through
// unconditionally.
func PrincipalFromContext(ctx context.Context) *domainauth.Principal {
	session, ok := GetUserSessionFromContext(ctx)
	if !ok {
		return nil
	}
	p := session.Principal()
	return &p
}
