// Package app assembles a ready-to-use API client from platform options.
package app

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/staffdesk/staffdesk-go/internal/client"
	"github.com/staffdesk/staffdesk-go/internal/credentials"
	"github.com/staffdesk/staffdesk-go/internal/metrics"
	"github.com/staffdesk/staffdesk-go/internal/session"
)

// Options selects the platform flavor of the session layer.
type Options struct {
	BaseURL string
	// CookieSession selects the implicit cookie session (admin panel).
	// Otherwise the bearer token pair is used (staff app), persisted at
	// CredsPath.
	CookieSession bool
	CredsPath     string
	Logger        zerolog.Logger
	// Registry receives the session metrics; nil leaves them unregistered.
	Registry prometheus.Registerer
}

// NewClient wires store, strategy and transport for the chosen platform.
func NewClient(opts Options) (*client.Client, error) {
	m := metrics.New(opts.Registry)

	var store credentials.Store
	var strategy session.Strategy
	httpClient := &http.Client{Timeout: 60 * time.Second}

	if opts.CookieSession {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		httpClient.Jar = jar
		store = credentials.NewCookieStore()
		strategy = session.CookieStrategy{}
	} else {
		path := opts.CredsPath
		if path == "" {
			path = credentials.DefaultPath()
		}
		if path == "" {
			return nil, fmt.Errorf("no credential path available")
		}
		store = credentials.NewFileStore(path)
		strategy = session.BearerStrategy{}
	}

	return client.New(client.Options{
		BaseURL:    opts.BaseURL,
		Store:      store,
		Strategy:   strategy,
		HTTPClient: httpClient,
		Logger:     opts.Logger,
		Metrics:    m,
	}), nil
}
