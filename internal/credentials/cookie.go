package credentials

import (
	"sync"
	"time"
)

// CookieStore backs the web session model: the actual session artifact lives
// in the HTTP client's cookie jar, carried implicitly on every request, so
// the store only tracks whether we believe the session is live. Get returns a
// marker credential while authenticated so the pipeline can proceed without
// an explicit token.
type CookieStore struct {
	mu            sync.RWMutex
	authenticated bool
	issuedAt      time.Time
	user          []byte
}

func NewCookieStore() *CookieStore {
	return &CookieStore{}
}

func (c *CookieStore) Get() (*Credential, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.authenticated {
		return nil, nil
	}
	return &Credential{IssuedAt: c.issuedAt, User: c.user}, nil
}

func (c *CookieStore) Set(cred *Credential) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authenticated = true
	c.issuedAt = cred.IssuedAt
	c.user = cred.User
	return nil
}

// Clear drops the local flag. The cookies themselves are invalidated by the
// server on logout; the jar is not touched here.
func (c *CookieStore) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authenticated = false
	c.user = nil
	return nil
}
