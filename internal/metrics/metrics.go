// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "benefit_estimator"

var (
	// Reconciliations counts every derivation of an earnings record: each
	// snapshot read or publish of a session with earnings, and each stateless
	// reconcile call. It measures read load, not writes.
	Reconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "earnings_derivations_total",
		Help:      "Earnings record derivations on read (snapshots, publishes, reconcile calls) by result (reconciled, passthrough).",
	}, []string{"result"})

	// Calculations counts mutation batches by outcome.
	Calculations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calculations_total",
		Help:      "Mutation batches by outcome.",
	}, []string{"outcome"})

	// CalculationMessages counts validation messages by level and code.
	CalculationMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calculation_messages_total",
		Help:      "Calculation messages emitted by level and code.",
	}, []string{"level", "code"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status class.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"route", "status"})

	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "state_subscribers",
		Help:      "Open user state subscriptions.",
	})
)

const (
	ResultReconciled  = "reconciled"
	ResultPassthrough = "passthrough"
)
