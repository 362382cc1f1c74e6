// Package devauth is a loopback AuthProvider for local development. It
// skips the identity provider entirely and signs in a fixed member
// described by configuration.
package devauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	domainauth "github.com/lodgeworks/lodge-api/internal/domain/auth"
	"github.com/lodgeworks/lodge-api/internal/ports"
)

const defaultSessionDuration = 8 * time.Hour

// Config describes the fixed identity the provider hands out. UserID
// and Email are required.
type Config struct {
	UserID          string
	Email           string
	Groups          []string
	SessionDuration time.Duration
}

// Provider satisfies ports.AuthProvider. Begin points straight back at
// the callback route, so the normal handler flow still runs, and
// Exchange returns the configured identity regardless of the code.
type Provider struct {
	cfg Config
}

func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	if cfg.SessionDuration <= 0 {
		cfg.SessionDuration = defaultSessionDuration
	}
	return &Provider{cfg: cfg}, nil
}

// Begin returns a relative callback URL so the browser never leaves the
// local server. State and nonce are real random values because the
// callback handler validates them like any other login.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", err
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", err
	}
	return "/auth/callback?code=dev&state=" + state, state, nonce, nil
}

// Exchange returns the configured identity with a fresh expiry. The
// code, state, and nonce inputs were already checked by the handler.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
	return domainauth.Identity{
		UserID:    p.cfg.UserID,
		Email:     p.cfg.Email,
		Groups:    append([]string(nil), p.cfg.Groups...),
		ExpiresAt: time.Now().Add(p.cfg.SessionDuration),
	}, nil
}

// randomString returns n URL-safe base64 characters.
func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, (n*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n], nil
}
