package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/lodgeworks/lodge-api/internal/domain/auth"
)

func TestRequireAuth_NoCookie(t *testing.T) {
	t.Parallel()
	auth := newFakeAuth()
	handler := RequireAuth(auth)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "NO_TOKEN", decodeBody(t, rec)["error"])
}

func TestRequireAuth_SessionInContext(t *testing.T) {
	t.Parallel()
	auth := newFakeAuth()
	session := memberSession("lodge-1")
	session.ID = "sess-1"
	auth.sessions["sess-1"] = &session

	var seen *domainauth.Session
	handler := RequireAuth(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserSessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "member-1", seen.UserID)
}

func TestPrincipalFromContext(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, PrincipalFromContext(req.Context()))

	session := lodgeAdminSession("lodge-1")
	ctx := SetSessionInContext(req.Context(), &session)
	p := PrincipalFromContext(ctx)
	require.NotNil(t, p)
	assert.Equal(t, "ladmin-1", p.ID)
	assert.Equal(t, domainauth.RoleLodgeAdmin, p.EffectiveRole("lodge-1"))
}

func TestOptionalAuth_PassesThroughWithoutSession(t *testing.T) {
	t.Parallel()
	auth := newFakeAuth()
	handler := OptionalAuth(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := GetUserSessionFromContext(r.Context())
		assert.False(t, ok)
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
