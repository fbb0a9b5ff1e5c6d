package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/staffdesk/staffdesk-go/internal/credentials"
	"github.com/staffdesk/staffdesk-go/internal/metrics"
)

// Doer is the transport used for the refresh call.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Coordinator owns the refresh protocol. Any number of requests failing with
// an expired credential funnel into one singleflight call to the refresh
// endpoint; every waiter resumes with the same outcome, either the fresh
// credential or ErrSessionExpired. A failed flight terminates the session
// exactly once for the whole batch.
type Coordinator struct {
	store      credentials.Store
	strategy   Strategy
	httpClient Doer
	baseURL    string
	terminator *Terminator
	logger     zerolog.Logger
	metrics    *metrics.Session

	group singleflight.Group

	mu       sync.Mutex
	attempts int
}

func NewCoordinator(store credentials.Store, strategy Strategy, httpClient Doer, baseURL string, terminator *Terminator, logger zerolog.Logger, m *metrics.Session) *Coordinator {
	return &Coordinator{
		store:      store,
		strategy:   strategy,
		httpClient: httpClient,
		baseURL:    baseURL,
		terminator: terminator,
		logger:     logger,
		metrics:    m,
	}
}

// Refresh returns a fresh credential, deduplicating concurrent callers onto a
// single upstream call. Callers that join while a refresh is in flight block
// until it settles and share its result.
func (c *Coordinator) Refresh(ctx context.Context) (*credentials.Credential, error) {
	// The flight must not die with the first caller that joined it; the
	// other waiters still need its result.
	flightCtx := context.WithoutCancel(ctx)
	v, err, shared := c.group.Do("refresh", func() (interface{}, error) {
		return c.refresh(flightCtx)
	})
	if err != nil {
		return nil, err
	}
	cred := v.(*credentials.Credential)
	if shared {
		c.logger.Debug().Msg("joined in-flight credential refresh")
	}
	return cred, nil
}

func (c *Coordinator) refresh(ctx context.Context) (*credentials.Credential, error) {
	c.mu.Lock()
	c.attempts++
	attempt := c.attempts
	c.mu.Unlock()

	c.logger.Info().Int("attempt", attempt).Msg("refreshing credential")

	cred, err := c.store.Get()
	if err != nil {
		return nil, c.deny(fmt.Errorf("failed to read credential: %w", err))
	}
	if cred == nil {
		return nil, c.deny(fmt.Errorf("no credential to refresh"))
	}

	req, err := c.strategy.NewRefreshRequest(ctx, c.baseURL, cred)
	if err != nil {
		return nil, c.deny(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Fail closed: a transport fault on the refresh call counts as a
		// denial, not a transient error.
		return nil, c.deny(fmt.Errorf("refresh call failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, c.deny(fmt.Errorf("failed to read refresh response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.deny(&HTTPError{
			StatusCode: resp.StatusCode,
			Method:     http.MethodPost,
			Path:       RefreshPath,
			Refresh:    true,
		})
	}

	fresh, err := c.strategy.ParseRefresh(body, cred)
	if err != nil {
		return nil, c.deny(err)
	}
	if err := c.store.Set(fresh); err != nil {
		// A credential we cannot persist is a credential we do not have.
		return nil, c.deny(fmt.Errorf("failed to persist refreshed credential: %w", err))
	}

	c.mu.Lock()
	c.attempts = 0
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RefreshTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	}
	c.logger.Info().Msg("credential refreshed")
	return fresh, nil
}

// deny terminates the session and folds the cause into ErrSessionExpired.
// It runs inside the singleflight callback, so the terminator fires once per
// failed refresh cycle no matter how many requests were waiting on it.
func (c *Coordinator) deny(cause error) error {
	if c.metrics != nil {
		c.metrics.RefreshTotal.WithLabelValues(metrics.OutcomeDenied).Inc()
	}
	c.logger.Warn().Err(cause).Msg("credential refresh denied")
	c.terminator.Terminate(cause)
	return fmt.Errorf("%w: %v", ErrSessionExpired, cause)
}
