// Package client is the authenticated request pipeline: it attaches the
// current credential to every outgoing call, recovers transparently from
// expired credentials through the session coordinator, and surfaces only
// ordinary request errors or a final session.ErrSessionExpired to callers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/staffdesk/staffdesk-go/internal/credentials"
	"github.com/staffdesk/staffdesk-go/internal/metrics"
	"github.com/staffdesk/staffdesk-go/internal/session"
)

// maxAuthRetries bounds how many times one logical request is replayed after
// a successful refresh before it is rejected outright.
const maxAuthRetries = 3

const maxErrorBody = 1 << 20

// Options wires a Client. HTTPClient is required for the cookie strategy,
// where the jar carries the session; when nil a default client with a 60s
// timeout is used.
type Options struct {
	BaseURL    string
	Store      credentials.Store
	Strategy   session.Strategy
	HTTPClient *http.Client
	Logger     zerolog.Logger
	Metrics    *metrics.Session
}

// Client is the only way the rest of the application talks to the backend.
type Client struct {
	baseURL     string
	store       credentials.Store
	strategy    session.Strategy
	httpClient  *http.Client
	logger      zerolog.Logger
	metrics     *metrics.Session
	coordinator *session.Coordinator
	terminator  *session.Terminator
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimSuffix(opts.BaseURL, "/")

	terminator := session.NewTerminator(opts.Store, opts.Logger, opts.Metrics)
	coordinator := session.NewCoordinator(opts.Store, opts.Strategy, httpClient, baseURL, terminator, opts.Logger, opts.Metrics)

	return &Client{
		baseURL:     baseURL,
		store:       opts.Store,
		strategy:    opts.Strategy,
		httpClient:  httpClient,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		coordinator: coordinator,
		terminator:  terminator,
	}
}

// OnSessionExpired registers the hook fired when the session terminates.
func (c *Client) OnSessionExpired(fn func()) {
	c.terminator.OnSessionExpired(fn)
}

// Do sends an authenticated request. A nil body sends no payload; otherwise
// the body is marshaled as JSON once and reused across replays. On success
// the raw response is returned with its body unread. Auth failures are
// handled internally; callers only ever see the request's own errors or
// session.ErrSessionExpired.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	cred, err := c.store.Get()
	if err != nil {
		c.terminator.Terminate(err)
		return nil, fmt.Errorf("%w: %v", session.ErrSessionExpired, err)
	}
	if cred == nil {
		// Fail fast without network I/O until a new login sets a credential.
		return nil, fmt.Errorf("%w: no active credential", session.ErrSessionExpired)
	}

	requestID := uuid.NewString()
	log := c.logger.With().Str("method", method).Str("path", path).Str("request_id", requestID).Logger()

	if c.strategy.NeedsRefresh(cred) {
		log.Debug().Msg("credential near expiry, refreshing ahead of request")
		cred, err = c.coordinator.Refresh(ctx)
		if err != nil {
			return nil, err
		}
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.send(ctx, method, path, payload, cred, requestID)
		if err == nil {
			return resp, nil
		}
		if session.Classify(err) != session.KindAuthExpired {
			return nil, err
		}
		if attempt >= maxAuthRetries {
			log.Warn().Int("replays", attempt).Str("kind", session.KindRetryExhausted.String()).Msg("replay budget exhausted, rejecting request")
			return nil, fmt.Errorf("%w: request kept failing authentication after %d replays", session.ErrSessionExpired, attempt)
		}

		cred, err = c.coordinator.Refresh(ctx)
		if err != nil {
			return nil, err
		}
		if c.metrics != nil {
			c.metrics.RequestReplays.Inc()
		}
		log.Debug().Int("replay", attempt+1).Msg("replaying request with refreshed credential")
	}
}

// Get is shorthand for a bodiless authenticated GET.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, cred *credentials.Credential, requestID string) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", requestID)
	c.strategy.Attach(req, cred)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	httpErr := &session.HTTPError{
		StatusCode: resp.StatusCode,
		Method:     method,
		Path:       path,
		RequestID:  requestID,
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil {
		var env session.Envelope
		if json.Unmarshal(raw, &env) == nil {
			httpErr.Code = env.Code
			httpErr.Message = env.Message
			if env.RequestID != "" {
				httpErr.RequestID = env.RequestID
			}
		}
	}
	return nil, httpErr
}
