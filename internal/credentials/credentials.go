package credentials

import (
	"encoding/json"
	"time"
)

// Credential is the session artifact presented with each authenticated
// request. RefreshToken is empty on platforms where the server manages the
// session implicitly (cookie transport); User carries the serialized profile
// returned at login so it can be persisted alongside the tokens.
type Credential struct {
	AccessToken  string
	RefreshToken string
	IssuedAt     time.Time
	User         json.RawMessage
}

// Store owns the current credential. Get returns (nil, nil) when no
// credential is present; a non-nil error means the backing storage itself
// failed, which callers must treat as an unrecoverable auth failure.
// Clear is idempotent.
type Store interface {
	Get() (*Credential, error)
	Set(*Credential) error
	Clear() error
}
