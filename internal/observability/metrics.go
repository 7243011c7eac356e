// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gnistdesign/gnist/internal/hook"
)

// Compile-time interface check.
var _ hook.Observer = (*Metrics)(nil)

// Metrics holds the engine's Prometheus metrics. It observes hook buses and
// lifecycle requests.
type Metrics struct {
	DispatchTotal    *prometheus.CounterVec
	DispatchDuration *prometheus.HistogramVec
	HandlersTotal    *prometheus.CounterVec
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
}

// NewMetrics creates and registers the engine metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gnist_hook_dispatch_total",
				Help: "Total number of hook dispatches by hook, kind and status",
			},
			[]string{"hook", "kind", "status"},
		),
		DispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gnist_hook_dispatch_duration_seconds",
				Help:    "Hook dispatch duration by kind, nested dispatches included",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"kind"},
		),
		HandlersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gnist_hook_handlers_total",
				Help: "Total number of handlers scheduled by dispatches, by kind",
			},
			[]string{"kind"},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gnist_requests_total",
				Help: "Total number of lifecycle requests by kind and status",
			},
			[]string{"kind", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gnist_request_duration_seconds",
				Help:    "Lifecycle request duration by kind",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
	}

	reg.MustRegister(
		m.DispatchTotal,
		m.DispatchDuration,
		m.HandlersTotal,
		m.RequestsTotal,
		m.RequestDuration,
	)
	return m
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveDispatch implements hook.Observer.
func (m *Metrics) ObserveDispatch(name string, kind hook.Kind, handlers int, elapsed time.Duration, err error) {
	m.DispatchTotal.WithLabelValues(name, kind.String(), status(err)).Inc()
	m.DispatchDuration.WithLabelValues(kind.String()).Observe(elapsed.Seconds())
	m.HandlersTotal.WithLabelValues(kind.String()).Add(float64(handlers))
}

// ObserveRequest records one finished lifecycle request.
func (m *Metrics) ObserveRequest(kind string, elapsed time.Duration, err error) {
	m.RequestsTotal.WithLabelValues(kind, status(err)).Inc()
	m.RequestDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}
