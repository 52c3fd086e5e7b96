package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels
const (
	ResultOK          = "ok"
	ResultSchemaError = "schema_error"
	ResultError       = "error"
	ResultMatch       = "match"
	ResultMismatch    = "mismatch"
)

var (
	HashesComputed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderhash_hashes_computed_total",
		Help: "Total number of typed data digests computed",
	}, []string{"kind", "result"})

	OracleCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderhash_oracle_calls_total",
		Help: "Total number of router hash calls",
	}, []string{"kind", "result"})

	OracleCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orderhash_oracle_call_duration_seconds",
		Help:    "Time taken by a router hash call",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderhash_verifications_total",
		Help: "Total number of local digests compared against the router",
	}, []string{"kind", "result"})

	StoredRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orderhash_stored_records",
		Help: "Number of hash records currently held in memory",
	})

	StreamSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orderhash_stream_subscribers",
		Help: "Number of connected websocket subscribers",
	})
)
