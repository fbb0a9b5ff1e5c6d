package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/staffdesk/staffdesk-go/internal/credentials"
)

const (
	RefreshPath = "/users/auth/refresh/"
	LoginPath   = "/users/auth/login/"
	LogoutPath  = "/users/auth/logout/"

	// refreshAhead mirrors the server's silent-refresh threshold: a bearer
	// token expiring within this window is refreshed before the request is
	// sent instead of waiting for the 401.
	refreshAhead = 60 * time.Second
)

// Envelope is the backend's uniform response shape.
type Envelope struct {
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	HTTPStatus int             `json:"http_status"`
	Code       string          `json:"code,omitempty"`
	RequestID  string          `json:"request_id,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

type authData struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	User         json.RawMessage `json:"user,omitempty"`
}

// Strategy abstracts the two session models: explicit bearer token with a
// rotating refresh token (staff app) and an implicit cookie session (admin
// panel). The coordinator's protocol is written once against this interface.
type Strategy interface {
	// Attach adds the credential to an outgoing request.
	Attach(req *http.Request, cred *credentials.Credential)
	// NeedsRefresh reports whether the credential should be refreshed
	// before use, ahead of any 401.
	NeedsRefresh(cred *credentials.Credential) bool
	// NewRefreshRequest builds the call to the refresh endpoint.
	NewRefreshRequest(ctx context.Context, baseURL string, cred *credentials.Credential) (*http.Request, error)
	// ParseRefresh turns a successful refresh response into the credential
	// to store and replay with.
	ParseRefresh(body []byte, prev *credentials.Credential) (*credentials.Credential, error)
	// ParseLogin turns a successful login response into the initial credential.
	ParseLogin(body []byte) (*credentials.Credential, error)
}

// BearerStrategy presents the access token as an Authorization header and
// refreshes with an explicit refresh token in the request body.
type BearerStrategy struct{}

func (BearerStrategy) Attach(req *http.Request, cred *credentials.Credential) {
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
}

func (BearerStrategy) NeedsRefresh(cred *credentials.Credential) bool {
	exp, ok := TokenExpiry(cred.AccessToken)
	if !ok {
		return false
	}
	return time.Until(exp) < refreshAhead
}

func (BearerStrategy) NewRefreshRequest(ctx context.Context, baseURL string, cred *credentials.Credential) (*http.Request, error) {
	if cred.RefreshToken == "" {
		return nil, fmt.Errorf("no refresh token available")
	}
	payload, err := json.Marshal(map[string]string{"refresh": cred.RefreshToken})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal refresh request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(baseURL, "/")+RefreshPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (BearerStrategy) ParseRefresh(body []byte, prev *credentials.Credential) (*credentials.Credential, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}
	var data authData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode refresh payload: %w", err)
	}
	if data.AccessToken == "" {
		return nil, fmt.Errorf("refresh response missing access token")
	}
	cred := &credentials.Credential{
		AccessToken:  data.AccessToken,
		RefreshToken: prev.RefreshToken,
		IssuedAt:     time.Now(),
		User:         prev.User,
	}
	// The server may rotate the refresh token; keep the old one otherwise.
	if data.RefreshToken != "" {
		cred.RefreshToken = data.RefreshToken
	}
	return cred, nil
}

func (BearerStrategy) ParseLogin(body []byte) (*credentials.Credential, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	var data authData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode login payload: %w", err)
	}
	if data.AccessToken == "" || data.RefreshToken == "" {
		return nil, fmt.Errorf("login response missing token pair")
	}
	return &credentials.Credential{
		AccessToken:  data.AccessToken,
		RefreshToken: data.RefreshToken,
		IssuedAt:     time.Now(),
		User:         data.User,
	}, nil
}

// CookieStrategy leans on the HTTP client's cookie jar: nothing is attached
// explicitly and the refresh call is bodiless, resolved by the server against
// its own session state.
type CookieStrategy struct{}

func (CookieStrategy) Attach(*http.Request, *credentials.Credential) {}

func (CookieStrategy) NeedsRefresh(*credentials.Credential) bool {
	// Only the server can see the session cookies' lifetimes.
	return false
}

func (CookieStrategy) NewRefreshRequest(ctx context.Context, baseURL string, _ *credentials.Credential) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(baseURL, "/")+RefreshPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build refresh request: %w", err)
	}
	return req, nil
}

func (CookieStrategy) ParseRefresh(body []byte, prev *credentials.Credential) (*credentials.Credential, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}
	var user json.RawMessage
	if prev != nil {
		user = prev.User
	}
	// The renewed access cookie rode in on Set-Cookie; the credential here
	// is only the local marker that the session is live.
	return &credentials.Credential{IssuedAt: time.Now(), User: user}, nil
}

func (CookieStrategy) ParseLogin(body []byte) (*credentials.Credential, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	return &credentials.Credential{IssuedAt: time.Now(), User: env.Data}, nil
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature,
// the client has no key material and only needs the timestamp. Returns false
// for opaque or claimless tokens.
func TokenExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
