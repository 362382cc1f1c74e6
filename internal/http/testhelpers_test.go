package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lodgeworks/lodge-api/internal/authz"
	domainauth "github.com/lodgeworks/lodge-api/internal/domain/auth"
	"github.com/lodgeworks/lodge-api/internal/mocks"
	"github.com/lodgeworks/lodge-api/internal/service"
)

// fakeAuth is an AuthServiceInterface backed by a canned session table,
// keyed by session cookie value.
type fakeAuth struct {
	sessions map[string]*domainauth.Session
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{sessions: map[string]*domainauth.Session{}}
}

func (f *fakeAuth) BeginLogin(_ context.Context, _ string) (*service.BeginLoginResult, error) {
	return &service.BeginLoginResult{
		AuthURL: "https://idp.example.org/authorize",
		State:   "state-1",
		Nonce:   "nonce-1",
	}, nil
}

func (f *fakeAuth) CompleteLogin(_ context.Context, _ service.CompleteLoginInput) (*service.CompleteLoginResult, error) {
	return nil, errors.New("not supported in tests")
}

func (f *fakeAuth) GetSession(_ context.Context, sessionID string) (*domainauth.Session, error) {
	if s, ok := f.sessions[sessionID]; ok {
		return s, nil
	}
	return nil, errors.New("session not found")
}

func (f *fakeAuth) Logout(_ context.Context, sessionID string) error {
	delete(f.sessions, sessionID)
	return nil
}

// routerFixture wires real services and a real guard over mocked
// repositories, so requests exercise the full decision path.
type routerFixture struct {
	lodges     *mocks.MockLodgeRepository
	members    *mocks.MockMemberRepository
	candidates *mocks.MockCandidateRepository
	events     *mocks.MockEventRepository
	posts      *mocks.MockPostRepository
	auth       *fakeAuth
	handler    http.Handler
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &routerFixture{
		lodges:     mocks.NewMockLodgeRepository(ctrl),
		members:    mocks.NewMockMemberRepository(ctrl),
		candidates: mocks.NewMockCandidateRepository(ctrl),
		events:     mocks.NewMockEventRepository(ctrl),
		posts:      mocks.NewMockPostRepository(ctrl),
		auth:       newFakeAuth(),
	}

	guard := authz.NewGuard(authz.GuardOptions{})

	lodgeSvc, err := service.NewLodgeService(service.LodgeServiceOptions{Guard: guard, Lodges: f.lodges})
	require.NoError(t, err)
	memberSvc, err := service.NewMemberService(service.MemberServiceOptions{Guard: guard, Members: f.members})
	require.NoError(t, err)
	candidateSvc, err := service.NewCandidateService(service.CandidateServiceOptions{
		Guard:      guard,
		Candidates: f.candidates,
		Resolver:   authz.NewResolver(nil),
	})
	require.NoError(t, err)
	eventSvc, err := service.NewEventService(service.EventServiceOptions{Guard: guard, Events: f.events})
	require.NoError(t, err)
	postSvc, err := service.NewPostService(service.PostServiceOptions{Guard: guard, Posts: f.posts})
	require.NoError(t, err)

	f.handler = NewRouter(RouterServices{
		Lodges:     lodgeSvc,
		Members:    memberSvc,
		Candidates: candidateSvc,
		Events:     eventSvc,
		Posts:      postSvc,
		Auth:       f.auth,
	})
	return f
}

// addSession registers a session and returns its cookie value.
func (f *routerFixture) addSession(id string, session domainauth.Session) string {
	if session.ExpiresAt.IsZero() {
		session.ExpiresAt = time.Now().Add(time.Hour)
	}
	session.ID = id
	f.auth.sessions[id] = &session
	return id
}

type requestSpec struct {
	method    string
	path      string
	body      any
	sessionID string
}

func (f *routerFixture) do(t *testing.T, spec requestSpec) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if spec.body != nil {
		data, err := json.Marshal(spec.body)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(spec.method, spec.path, body)
	if spec.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if spec.sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "session_id", Value: spec.sessionID})
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func districtAdminSession() domainauth.Session {
	return domainauth.Session{
		UserID: "admin-1",
		Email:  "admin@example.org",
		Role:   domainauth.RoleDistrictAdmin,
	}
}

func lodgeAdminSession(lodgeID string) domainauth.Session {
	return domainauth.Session{
		UserID:         "ladmin-1",
		Email:          "ladmin@example.org",
		Role:           domainauth.RoleLodgeMember,
		PrimaryLodgeID: lodgeID,
		LodgeRoles:     map[string]domainauth.Role{lodgeID: domainauth.RoleLodgeAdmin},
	}
}

func memberSession(lodgeID string) domainauth.Session {
	return domainauth.Session{
		UserID:         "member-1",
		Email:          "member@example.org",
		Role:           domainauth.RoleLodgeMember,
		PrimaryLodgeID: lodgeID,
	}
}
