// Package oidc authenticates members against an OIDC identity provider
// and maps the provider's claims onto the lodge directory identity.
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/lodgeworks/lodge-api/internal/domain/auth"
	"github.com/lodgeworks/lodge-api/internal/ports"
)

// fallbackTokenLifetime is used when the token response carries no expiry.
const fallbackTokenLifetime = time.Hour

// stateLength is the character length of generated state and nonce values.
const stateLength = 32

// Provider drives the authorization-code flow against a discovered
// OIDC issuer. It satisfies ports.AuthProvider.
type Provider struct {
	config     *oauth2.Config
	logoutURL  string
	httpClient *http.Client

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

// ProviderConfig configures a Provider. All fields except LogoutURL and
// HTTPClient are required.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	LogoutURL    string
	HTTPClient   *http.Client
}

// DiscoveryDocument is the subset of the OIDC discovery document the
// adapter cares about.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

// NewProvider fetches the discovery document once and builds the OAuth2
// configuration and ID token verifier from it.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	switch {
	case cfg.ClientID == "":
		return nil, errors.New("client ID is required")
	case cfg.ClientSecret == "":
		return nil, errors.New("client secret is required")
	case cfg.RedirectURL == "":
		return nil, errors.New("redirect URL is required")
	case cfg.DiscoveryURL == "":
		return nil, errors.New("discovery URL is required")
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, hc)
	op, err := gooidc.NewProvider(ctx, issuerFromDiscoveryURL(cfg.DiscoveryURL))
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       strings.Fields(cfg.Scope),
			Endpoint:     op.Endpoint(),
		},
		logoutURL:    cfg.LogoutURL,
		httpClient:   hc,
		oidcProvider: op,
		verifier:     op.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// issuerFromDiscoveryURL accepts either a bare issuer URL or the full
// discovery document URL and returns the issuer.
func issuerFromDiscoveryURL(u string) string {
	issuer := strings.TrimSuffix(u, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	return strings.TrimSuffix(issuer, ".well-known/openid-configuration")
}

// Begin produces the authorization URL plus the state and nonce the
// caller must persist for the callback leg.
func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}

	state, err := generateRandomString(stateLength)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(stateLength)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	// The redirect_uri must stay exactly the configured value, so it is
	// deliberately not overridden from the input.
	authURL := p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("response_type", "code"),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return authURL, state, nonce, nil
}

// Exchange redeems the authorization code, verifies the ID token and
// returns the member identity. Fields the ID token does not carry are
// backfilled from the userinfo endpoint.
func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	switch {
	case in.Code == "":
		return domainauth.Identity{}, errors.New("authorization code is required")
	case in.State == "":
		return domainauth.Identity{}, errors.New("state is required")
	case in.Nonce == "":
		return domainauth.Identity{}, errors.New("nonce is required")
	}

	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("exchange code for token: %w", err)
	}

	fields, err := p.extractFromIDToken(ctx, token, in.Nonce)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("extract id_token: %w", err)
	}
	if fields.email == "" || fields.userID == "" {
		ui, uiErr := p.getUserInfo(ctx, token.AccessToken)
		if uiErr != nil {
			return domainauth.Identity{}, fmt.Errorf("get user info: %w", uiErr)
		}
		fillFromUserInfoClaims(&fields, *ui)
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(fallbackTokenLifetime)
	}

	return domainauth.Identity{
		UserID:    fields.userID,
		FirstName: fields.givenName,
		LastName:  fields.familyName,
		Email:     fields.email,
		Groups:    fields.groups,
		ExpiresAt: expiresAt,
	}, nil
}

// idFields accumulates identity attributes across the ID token and
// userinfo sources.
type idFields struct {
	userID     string
	email      string
	givenName  string
	familyName string
	groups     []string
}

// idTokenADClaims covers both plain OIDC and AD/ADFS claim names as
// they appear in ID tokens issued by directory-backed providers.
type idTokenADClaims struct {
	Sub            string   `json:"sub"`
	SamAccountName string   `json:"samaccountname"`
	FirstName      string   `json:"firstname"`
	LastName       string   `json:"lastname"`
	Mail           string   `json:"mail"`
	MemberOf       []string `json:"memberof"`
	ExpiresAt      int64    `json:"exp"`
	Nonce          string   `json:"nonce"`
}

// UserInfo is the claim shape returned by the userinfo endpoint.
type UserInfo struct {
	Subject        string   `json:"sub"`
	SamAccountName string   `json:"samaccountname"`
	FirstName      string   `json:"firstname"`
	LastName       string   `json:"lastname"`
	Mail           string   `json:"mail"`
	MemberOf       []string `json:"memberof"`
}

// extractFromIDToken verifies the ID token and maps its claims. When
// "openid" is not among the requested scopes no ID token is expected and
// the zero value is returned.
func (p *Provider) extractFromIDToken(ctx context.Context, tok *oauth2.Token, expectedNonce string) (idFields, error) {
	if !p.hasOpenIDScope() {
		return idFields{}, nil
	}
	rawID, err := getIDTokenFromToken(tok)
	if err != nil {
		return idFields{}, err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return idFields{}, fmt.Errorf("verify id_token: %w", err)
	}
	var claims idTokenADClaims
	if err := idTok.Claims(&claims); err != nil {
		return idFields{}, fmt.Errorf("parse id_token claims: %w", err)
	}
	if expectedNonce != "" && claims.Nonce != expectedNonce {
		return idFields{}, errors.New("invalid nonce")
	}
	return mapIDTokenClaims(claims), nil
}

func (p *Provider) getUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	raw, err := p.oidcProvider.UserInfo(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	var ui UserInfo
	if err := raw.Claims(&ui); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return &ui, nil
}

// mapIDTokenClaims projects ID token claims onto idFields. The AD
// account name wins over the OIDC subject when both are present.
func mapIDTokenClaims(c idTokenADClaims) idFields {
	userID := c.SamAccountName
	if userID == "" {
		userID = c.Sub
	}
	return idFields{
		userID:     userID,
		email:      c.Mail,
		givenName:  c.FirstName,
		familyName: c.LastName,
		groups:     c.MemberOf,
	}
}

// fillFromUserInfoClaims backfills only the fields the ID token left
// empty. Already-populated fields keep their ID token values.
func fillFromUserInfoClaims(f *idFields, ui UserInfo) {
	if f.userID == "" {
		if f.userID = ui.SamAccountName; f.userID == "" {
			f.userID = ui.Subject
		}
	}
	if f.email == "" {
		f.email = ui.Mail
	}
	if f.givenName == "" {
		f.givenName = ui.FirstName
	}
	if f.familyName == "" {
		f.familyName = ui.LastName
	}
	if len(f.groups) == 0 {
		f.groups = ui.MemberOf
	}
}

func (p *Provider) hasOpenIDScope() bool {
	return slices.Contains(p.config.Scopes, "openid")
}

// getIDTokenFromToken pulls the raw id_token out of the token response.
func getIDTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}

// generateRandomString returns a URL-safe random string of exactly
// length characters.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	// Round up so the base64 expansion yields at least length characters.
	b := make([]byte, (length*3+3)/4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	for len(s) < length {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:length], nil
}
