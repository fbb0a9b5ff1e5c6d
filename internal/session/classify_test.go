package session

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{
			name: "401 on an ordinary call is expired",
			err:  &HTTPError{StatusCode: http.StatusUnauthorized, Method: "GET", Path: "/api/employees/"},
			want: KindAuthExpired,
		},
		{
			name: "401 from the refresh endpoint is denied",
			err:  &HTTPError{StatusCode: http.StatusUnauthorized, Method: "POST", Path: RefreshPath, Refresh: true},
			want: KindAuthDenied,
		},
		{
			name: "wrapped HTTP error is still classified",
			err:  fmt.Errorf("sending request: %w", &HTTPError{StatusCode: http.StatusUnauthorized}),
			want: KindAuthExpired,
		},
		{
			name: "403 is not the session layer's problem",
			err:  &HTTPError{StatusCode: http.StatusForbidden},
			want: KindOther,
		},
		{
			name: "500 passes through",
			err:  &HTTPError{StatusCode: http.StatusInternalServerError},
			want: KindOther,
		},
		{
			name: "network error passes through",
			err:  errors.New("dial tcp: connection refused"),
			want: KindOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "auth_expired", KindAuthExpired.String())
	assert.Equal(t, "auth_denied", KindAuthDenied.String())
	assert.Equal(t, "retry_exhausted", KindRetryExhausted.String())
	assert.Equal(t, "other", KindOther.String())
}
