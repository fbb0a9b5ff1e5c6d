package session

import (
	"errors"
	"net/http"
)

// Kind is the failure taxonomy of the session layer.
type Kind int

const (
	// KindOther is anything the session layer does not own: business
	// errors, validation failures, 5xx, network faults on ordinary calls.
	KindOther Kind = iota
	// KindAuthExpired is a 401 on an ordinary call, recoverable by refresh.
	KindAuthExpired
	// KindAuthDenied is a 401 from the refresh endpoint itself, or a
	// credential storage failure. Terminal.
	KindAuthDenied
	// KindRetryExhausted is a request that kept failing 401 past the replay
	// bound. Terminal for that request.
	KindRetryExhausted
)

func (k Kind) String() string {
	switch k {
	case KindAuthExpired:
		return "auth_expired"
	case KindAuthDenied:
		return "auth_denied"
	case KindRetryExhausted:
		return "retry_exhausted"
	default:
		return "other"
	}
}

// Classify inspects a request failure. Only a 401 enters the refresh
// machinery; which side of the expired/denied line it lands on depends on
// whether the failing call was the refresh endpoint.
func Classify(err error) Kind {
	var he *HTTPError
	if !errors.As(err, &he) {
		return KindOther
	}
	if he.StatusCode != http.StatusUnauthorized {
		return KindOther
	}
	if he.Refresh {
		return KindAuthDenied
	}
	return KindAuthExpired
}
