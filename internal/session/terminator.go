package session

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/staffdesk/staffdesk-go/internal/credentials"
	"github.com/staffdesk/staffdesk-go/internal/metrics"
)

// Terminator is the escalation path once refresh is off the table: it clears
// the credential store and fires the registered re-authentication hook.
// Terminate is idempotent until Arm is called again after a new login.
type Terminator struct {
	store   credentials.Store
	logger  zerolog.Logger
	metrics *metrics.Session

	mu         sync.Mutex
	terminated bool
	onExpired  func()
}

func NewTerminator(store credentials.Store, logger zerolog.Logger, m *metrics.Session) *Terminator {
	return &Terminator{
		store:   store,
		logger:  logger,
		metrics: m,
	}
}

// OnSessionExpired registers the navigation hook invoked when the session
// ends. Register it once at application start; it is the session layer's
// only reach into the UI layer.
func (t *Terminator) OnSessionExpired(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onExpired = fn
}

// Terminate ends the session: clear the store, mark the process
// unauthenticated, notify the hook. Repeat calls while terminated are no-ops.
// It never fails; a store that cannot be cleared is logged and treated as
// cleared.
func (t *Terminator) Terminate(reason error) {
	t.mu.Lock()
	if t.terminated {
		t.mu.Unlock()
		return
	}
	t.terminated = true
	fn := t.onExpired
	t.mu.Unlock()

	if err := t.store.Clear(); err != nil {
		t.logger.Warn().Err(err).Msg("failed to clear credential store, treating as cleared")
	}
	if t.metrics != nil {
		t.metrics.TerminationsTotal.Inc()
	}
	t.logger.Info().AnErr("reason", reason).Msg("session terminated")

	if fn != nil {
		fn()
	}
}

// Terminated reports whether the session has ended since the last Arm.
func (t *Terminator) Terminated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.terminated
}

// Arm re-enables termination after a fresh login established a new session.
func (t *Terminator) Arm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.terminated = false
}
