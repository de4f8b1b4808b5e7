package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Proxy outcomes used as the "outcome" label.
const (
	outcomeOK          = "ok"
	outcomeBinary      = "binary"
	outcomeInvalid     = "invalid"
	outcomeRateLimited = "rate_limited"
	outcomeUpstreamErr = "upstream_error"
)

var (
	proxyExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "postboy",
			Name:      "proxy_executions_total",
			Help:      "Proxy executions by outcome.",
		},
		[]string{"outcome"},
	)

	proxyUpstreamSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "postboy",
			Name:      "proxy_upstream_seconds",
			Help:      "Latency of outbound calls made by the proxy.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	storeOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "postboy",
			Name:      "store_operations_total",
			Help:      "Collection store API calls by operation and status code.",
		},
		[]string{"op", "code"},
	)
)
