package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CodesIssued counts issued verification codes.
	CodesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "verifyd_codes_issued_total",
			Help: "Total number of verification codes issued",
		},
	)

	// Validations counts validation attempts by outcome
	// (valid|mismatch|expired|locked|not_found).
	Validations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verifyd_validations_total",
			Help: "Total number of OTP validation attempts",
		},
		[]string{"result"},
	)

	// Deliveries counts notifier dispatches by result (success|failure).
	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verifyd_deliveries_total",
			Help: "Total number of verification email deliveries",
		},
		[]string{"result"},
	)

	// RecordsSwept counts expired records removed by the background sweep.
	RecordsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "verifyd_records_swept_total",
			Help: "Expired verification records removed by the sweeper",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "verifyd_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
