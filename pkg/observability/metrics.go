package observability

import (
	"context"

	"github.com/aretw0/wphook/pkg/domain"
	"github.com/aretw0/wphook/pkg/xmlrpc"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by pipeline hooks.
type Metrics struct {
	Requests        *prometheus.CounterVec
	HandlerDuration *prometheus.HistogramVec
	HandlerErrors   *prometheus.CounterVec
	Relays          *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// It panics if registration fails, like prometheus.MustRegister.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wphook_requests_total",
				Help: "XML-RPC requests by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		HandlerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wphook_handler_duration_seconds",
				Help:    "Duration of post handler invocations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"handler"},
		),
		HandlerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wphook_handler_errors_total",
				Help: "Post handler invocations that returned an error",
			},
			[]string{"handler"},
		),
		Relays: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wphook_relay_total",
				Help: "Outbound relay attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(m.Requests, m.HandlerDuration, m.HandlerErrors, m.Relays)
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnRequest: func(_ context.Context, e *domain.RequestEvent) {
			m.Requests.WithLabelValues(methodLabel(e.Method), string(e.Outcome)).Inc()
		},
		OnHandler: func(_ context.Context, e *domain.HandlerEvent) {
			m.HandlerDuration.WithLabelValues(e.Handler).Observe(e.Duration.Seconds())
			if e.Err != nil {
				m.HandlerErrors.WithLabelValues(e.Handler).Inc()
			}
		},
		OnRelay: func(_ context.Context, e *domain.RelayEvent) {
			outcome := "delivered"
			if e.Err != nil {
				outcome = "failed"
			}
			m.Relays.WithLabelValues(outcome).Inc()
		},
	}
}

// methodLabel keeps the method label to a fixed set of values.
func methodLabel(method string) string {
	switch method {
	case xmlrpc.MethodSupportedMethods, xmlrpc.MethodGetRecentPosts, xmlrpc.MethodNewPost:
		return method
	case "":
		return "invalid"
	}
	return "other"
}
