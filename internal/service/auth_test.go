package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lodgeworks/lodge-api/internal/data"
	domainauth "github.com/lodgeworks/lodge-api/internal/domain/auth"
	"github.com/lodgeworks/lodge-api/internal/domain/model"
	"github.com/lodgeworks/lodge-api/internal/mocks"
	"github.com/lodgeworks/lodge-api/internal/ports"
)

// fakeProvider is a canned AuthProvider for tests.
type fakeProvider struct {
	identity domainauth.Identity
	err      error
}

func (f *fakeProvider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	return "https://idp.example.org/authorize", "state-1", "nonce-1", f.err
}

func (f *fakeProvider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
	return f.identity, f.err
}

// memorySessions is an in-memory SessionStore for tests.
type memorySessions struct {
	sessions map[string]domainauth.Session
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: map[string]domainauth.Session{}}
}

func (m *memorySessions) Save(_ context.Context, sess domainauth.Session) error {
	m.sessions[sess.ID] = sess
	return nil
}

func (m *memorySessions) Get(_ context.Context, id string) (domainauth.Session, error) {
	sess, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, errors.New("session not found")
	}
	return sess, nil
}

func (m *memorySessions) Delete(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

// staticRoles maps every group list to the same mapping.
type staticRoles struct {
	mapping ports.RoleMapping
}

func (s *staticRoles) Map(_ []string) ports.RoleMapping { return s.mapping }

func testIdentity() domainauth.Identity {
	return domainauth.Identity{
		UserID:    "jdoe",
		FirstName: "Jordan",
		LastName:  "Doe",
		Email:     "JDoe@Example.org",
		Groups:    []string{"lodge-users"},
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestAuthService_CompleteLogin_MergesMemberRow(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	memberRepo := mocks.NewMockMemberRepository(ctrl)
	sessions := newMemorySessions()

	home := testHomeLodge
	memberRepo.EXPECT().
		GetByEmail(gomock.Any(), "JDoe@Example.org").
		Return(&model.Member{
			ID:             testMemberID,
			Email:          "jdoe@example.org",
			Role:           domainauth.RoleLodgeMember,
			PrimaryLodgeID: &home,
			LodgeRoles:     map[string]domainauth.Role{testHomeLodge: domainauth.RoleLodgeAdmin},
		}, nil).
		Times(1)

	service := NewAuthService(AuthServiceOptions{
		Provider: &fakeProvider{identity: testIdentity()},
		Sessions: sessions,
		Roles:    &staticRoles{mapping: ports.RoleMapping{GlobalRole: domainauth.RoleLodgeMember}},
		Members:  memberRepo,
	})

	result, err := service.CompleteLogin(context.Background(), CompleteLoginInput{
		Code: "code-1", State: "state-1", Nonce: "nonce-1",
	})
	require.NoError(t, err)

	sess := result.Session
	assert.Equal(t, testMemberID, sess.UserID)
	assert.Equal(t, testHomeLodge, sess.PrimaryLodgeID)
	assert.Equal(t, domainauth.RoleLodgeAdmin, sess.LodgeRoles[testHomeLodge])
	// Promotion invariant: the lodge-admin override raises the stored
	// global role.
	assert.Equal(t, domainauth.RoleLodgeAdmin, sess.Role)
	assert.NotEmpty(t, sess.ID)

	// And the session is retrievable.
	got, err := service.GetSession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, got.UserID)
}

func TestAuthService_CompleteLogin_NoMemberRow(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	memberRepo := mocks.NewMockMemberRepository(ctrl)
	memberRepo.EXPECT().
		GetByEmail(gomock.Any(), gomock.Any()).
		Return(nil, data.ErrMemberNotFound).
		Times(1)

	service := NewAuthService(AuthServiceOptions{
		Provider: &fakeProvider{identity: testIdentity()},
		Sessions: newMemorySessions(),
		Roles: &staticRoles{mapping: ports.RoleMapping{
			GlobalRole:           domainauth.RoleDistrictAdmin,
			AdministeredLodgeIDs: []string{testHomeLodge},
		}},
		Members: memberRepo,
	})

	result, err := service.CompleteLogin(context.Background(), CompleteLoginInput{
		Code: "code-1", State: "state-1", Nonce: "nonce-1",
	})
	require.NoError(t, err)

	// An identity with no member row logs in on the mapping alone,
	// keeping the IdP user id.
	assert.Equal(t, "jdoe", result.Session.UserID)
	assert.Equal(t, domainauth.RoleDistrictAdmin, result.Session.Role)
	assert.Equal(t, []string{testHomeLodge}, result.Session.AdministeredLodgeIDs)
}

func TestAuthService_CompleteLogin_HigherStoredRoleWins(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	memberRepo := mocks.NewMockMemberRepository(ctrl)
	memberRepo.EXPECT().
		GetByEmail(gomock.Any(), gomock.Any()).
		Return(&model.Member{ID: testMemberID, Role: domainauth.RoleSuperAdmin}, nil).
		Times(1)

	service := NewAuthService(AuthServiceOptions{
		Provider: &fakeProvider{identity: testIdentity()},
		Sessions: newMemorySessions(),
		Roles:    &staticRoles{mapping: ports.RoleMapping{GlobalRole: domainauth.RoleLodgeMember}},
		Members:  memberRepo,
	})

	result, err := service.CompleteLogin(context.Background(), CompleteLoginInput{
		Code: "code-1", State: "state-1", Nonce: "nonce-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleSuperAdmin, result.Session.Role)
}

func TestAuthService_CompleteLogin_MissingParams(t *testing.T) {
	t.Parallel()
	service := NewAuthService(AuthServiceOptions{
		Provider: &fakeProvider{identity: testIdentity()},
		Sessions: newMemorySessions(),
		Roles:    &staticRoles{},
	})

	_, err := service.CompleteLogin(context.Background(), CompleteLoginInput{State: "s", Nonce: "n"})
	require.Error(t, err)

	_, err = service.CompleteLogin(context.Background(), CompleteLoginInput{Code: "c", Nonce: "n"})
	require.Error(t, err)

	_, err = service.CompleteLogin(context.Background(), CompleteLoginInput{Code: "c", State: "s"})
	require.Error(t, err)
}

func TestAuthService_GetSession_ExpiredIsDeleted(t *testing.T) {
	t.Parallel()
	sessions := newMemorySessions()
	service := NewAuthService(AuthServiceOptions{
		Provider: &fakeProvider{},
		Sessions: sessions,
		Roles:    &staticRoles{},
	})

	expired := domainauth.Session{
		ID:        "sess-expired",
		UserID:    "jdoe",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, sessions.Save(context.Background(), expired))

	_, err := service.GetSession(context.Background(), "sess-expired")
	require.Error(t, err)

	// The expired session is gone.
	_, getErr := sessions.Get(context.Background(), "sess-expired")
	require.Error(t, getErr)
}

func TestAuthService_BeginLogin(t *testing.T) {
	t.Parallel()
	service := NewAuthService(AuthServiceOptions{
		Provider: &fakeProvider{},
		Sessions: newMemorySessions(),
		Roles:    &staticRoles{},
	})

	result, err := service.BeginLogin(context.Background(), "https://app.example.org/callback")
	require.NoError(t, err)
	assert.Equal(t, "https://idp.example.org/authorize", result.AuthURL)
	assert.Equal(t, "state-1", result.State)
	assert.Equal(t, "nonce-1", result.Nonce)

	_, err = service.BeginLogin(context.Background(), "")
	require.Error(t, err)
}

func TestAuthService_Logout(t *testing.T) {
	t.Parallel()
	sessions := newMemorySessions()
	service := NewAuthService(AuthServiceOptions{
		Provider: &fakeProvider{},
		Sessions: sessions,
		Roles:    &staticRoles{},
	})

	require.NoError(t, sessions.Save(context.Background(), domainauth.Session{ID: "sess-1"}))
	require.NoError(t, service.Logout(context.Background(), "sess-1"))
	_, err := sessions.Get(context.Background(), "sess-1")
	require.Error(t, err)

	// Blank session id is a no-op.
	require.NoError(t, service.Logout(context.Background(), ""))
}
