package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/lodgeworks/lodge-api/internal/domain/auth"
	"github.com/lodgeworks/lodge-api/internal/service"
)

// Cookie names used across the login flow.
const (
	cookieSession     = "session_id"
	cookieOAuthState  = "oauth_state"
	cookieOAuthNonce  = "oauth_nonce"
	cookiePostLoginTo = "post_login_redirect"
)

// oauthCookieMaxAge bounds how long a login attempt may sit between the
// redirect to the identity provider and the callback.
const oauthCookieMaxAge = 600

// AuthServiceInterface is the slice of the auth service the handlers
// call.
type AuthServiceInterface interface {
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlers serves the login, callback, logout, and session-info
// endpoints.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	CookieDomain string
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login starts the login flow and redirects to the identity provider.
// GET /auth/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	result, err := h.Svc.BeginLogin(r.Context(), redirectURI)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     err,
		})
		return
	}

	// State, nonce, and the destination survive the IdP round trip in
	// short-lived cookies.
	h.setCookie(w, r, cookieOAuthState, result.State, oauthCookieMaxAge)
	h.setCookie(w, r, cookieOAuthNonce, result.Nonce, oauthCookieMaxAge)
	h.setCookie(w, r, cookiePostLoginTo, redirectURI, oauthCookieMaxAge)

	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback finishes the login flow after the identity provider
// redirects back. GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_state",
			Err:     errors.New("state parameter is required"),
		})
		return
	}

	// The state must round-trip through the cookie untouched.
	stateCookie, err := r.Cookie(cookieOAuthState)
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie(cookieOAuthNonce)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	result, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_completion_failed",
			Err:     err,
		})
		return
	}

	h.setCookie(w, r, cookieSession, result.Session.ID, int(time.Until(result.Session.ExpiresAt).Seconds()))
	h.clearCookie(w, r, cookieOAuthState)
	h.clearCookie(w, r, cookieOAuthNonce)

	http.Redirect(w, r, h.popPostLoginRedirect(w, r), http.StatusFound)
}

// Logout invalidates the server-side session and clears the cookie.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionCookie, err := r.Cookie(cookieSession); err == nil {
		if err := h.Svc.Logout(r.Context(), sessionCookie.Value); err != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", err)
		}
	}
	h.clearCookie(w, r, cookieSession)

	WriteJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// Me reports the signed-in member, or authenticated=false. Always 200
// so the frontend can poll it without error handling.
// GET /auth/me.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	sessionCookie, err := r.Cookie(cookieSession)
	if err != nil {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	session, err := h.Svc.GetSession(r.Context(), sessionCookie.Value)
	if err != nil {
		// Invalid or expired session; drop the stale cookie.
		h.clearCookie(w, r, cookieSession)
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"id":                     session.UserID,
			"first_name":             session.FirstName,
			"last_name":              session.LastName,
			"email":                  session.Email,
			"role":                   session.Role,
			"primary_lodge_id":       session.PrimaryLodgeID,
			"administered_lodge_ids": session.AdministeredLodgeIDs,
			"lodge_roles":            session.LodgeRoles,
		},
		"expires_at": session.ExpiresAt,
	})
}

// setCookie writes an HttpOnly Lax cookie scoped to the configured
// domain. Secure is derived per request so local HTTP development still
// works behind the same code path as TLS deployments.
func (h *AuthHandlers) setCookie(w http.ResponseWriter, r *http.Request, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// clearCookie expires a cookie with the same attributes it was set
// with, which browsers require for deletion to take effect.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// popPostLoginRedirect reads the stored destination, clears its cookie,
// and falls back to "/".
func (h *AuthHandlers) popPostLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	redirectURI := "/"
	if c, err := r.Cookie(cookiePostLoginTo); err == nil {
		redirectURI = safeRedirectPath(c.Value)
		h.clearCookie(w, r, cookiePostLoginTo)
	}
	return redirectURI
}

func requestIsSecure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// safeRedirectPath keeps post-login redirects same-origin. Anything but
// a relative path starting with "/" collapses to "/".
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}
