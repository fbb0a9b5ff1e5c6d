// Package metrics exposes Prometheus counters for the session layer. The
// refresh attempts counter on the coordinator is diagnostic only and never
// gates behavior.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeDenied  = "denied"
)

type Session struct {
	RefreshTotal      *prometheus.CounterVec
	RequestReplays    prometheus.Counter
	TerminationsTotal prometheus.Counter
}

// New builds the session counters. A nil registerer yields working but
// unregistered counters, which keeps library use without a registry cheap.
func New(reg prometheus.Registerer) *Session {
	factory := promauto.With(reg)
	return &Session{
		RefreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "staffdesk_refresh_total",
			Help: "Credential refresh calls by outcome.",
		}, []string{"outcome"}),
		RequestReplays: factory.NewCounter(prometheus.CounterOpts{
			Name: "staffdesk_request_replays_total",
			Help: "Requests replayed after a successful credential refresh.",
		}),
		TerminationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "staffdesk_session_terminations_total",
			Help: "Session terminations forcing re-authentication.",
		}),
	}
}
