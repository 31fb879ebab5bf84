package dispatcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paymentcore",
		Subsystem: "dispatch",
		Name:      "requests_total",
		Help:      "Gateway requests sent through the dispatcher, by outcome.",
	}, []string{"instrument", "operation", "outcome"})

	durationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "paymentcore",
		Subsystem: "dispatch",
		Name:      "duration_seconds",
		Help:      "Round trip time of gateway requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"instrument", "operation"})
)

// GetRequestsTotal exposes the request counter for tests and custom registries.
func GetRequestsTotal() *prometheus.CounterVec { return requestsTotal }

// GetDurationSeconds exposes the latency histogram.
func GetDurationSeconds() *prometheus.HistogramVec { return durationSeconds }
