package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the auth-facing Prometheus metrics for the client tier.
// Package-local concerns (dedupe, token store) register their own collectors.
type Metrics struct {
	Logins        prometheus.Counter
	LoginFailures prometheus.Counter
	Logouts       prometheus.Counter
	Restores      prometheus.Counter
}

// New creates and registers all auth metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		Logins: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coverdesk_logins_total",
			Help: "Successful credential exchanges",
		}),
		LoginFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coverdesk_login_failures_total",
			Help: "Credential exchanges rejected by the upstream",
		}),
		Logouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coverdesk_logouts_total",
			Help: "Explicit logouts",
		}),
		Restores: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coverdesk_session_restores_total",
			Help: "Session restorations attempted from persisted credentials",
		}),
	}
}
