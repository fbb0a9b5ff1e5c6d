package session

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffdesk/staffdesk-go/internal/credentials"
)

func TestTerminatorIdempotent(t *testing.T) {
	store := credentials.NewMemoryStore()
	require.NoError(t, store.Set(&credentials.Credential{AccessToken: "tok"}))

	terminator := NewTerminator(store, zerolog.Nop(), nil)
	fired := 0
	terminator.OnSessionExpired(func() { fired++ })

	reason := errors.New("refresh rejected")
	terminator.Terminate(reason)
	terminator.Terminate(reason)
	terminator.Terminate(reason)

	assert.Equal(t, 1, fired, "the hook fires once per session, not per call")
	assert.True(t, terminator.Terminated())

	cred, err := store.Get()
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestTerminatorRearm(t *testing.T) {
	store := credentials.NewMemoryStore()
	terminator := NewTerminator(store, zerolog.Nop(), nil)
	fired := 0
	terminator.OnSessionExpired(func() { fired++ })

	terminator.Terminate(errors.New("first session"))
	assert.Equal(t, 1, fired)

	// A new login re-arms the terminator; the next expiry escalates again.
	require.NoError(t, store.Set(&credentials.Credential{AccessToken: "tok2"}))
	terminator.Arm()
	assert.False(t, terminator.Terminated())

	terminator.Terminate(errors.New("second session"))
	assert.Equal(t, 2, fired)
}

type failingStore struct{ credentials.Store }

func (failingStore) Clear() error { return errors.New("storage unavailable") }

func TestTerminatorTreatsClearFailureAsCleared(t *testing.T) {
	terminator := NewTerminator(failingStore{credentials.NewMemoryStore()}, zerolog.Nop(), nil)
	fired := 0
	terminator.OnSessionExpired(func() { fired++ })

	terminator.Terminate(errors.New("denied"))

	assert.Equal(t, 1, fired, "a store that cannot be cleared must not block termination")
	assert.True(t, terminator.Terminated())
}
