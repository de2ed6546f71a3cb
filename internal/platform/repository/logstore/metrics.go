package logstore

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	puts             prometheus.Counter
	deletes          prometheus.Counter
	gets             prometheus.Counter
	getMisses        prometheus.Counter
	appendsFailed    prometheus.Counter
	recoveredRecords prometheus.Counter
	appendDuration   prometheus.Summary
	liveKeys         prometheus.Gauge
	logSize          prometheus.Gauge
}

// NewMetrics creates the engine metrics and registers them when registerer is
// not nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{}

	m.puts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "puts_total",
		Help: "Total number of put records appended.",
	})

	m.deletes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deletes_total",
		Help: "Total number of tombstone records appended.",
	})

	m.gets = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gets_total",
		Help: "Total number of lookups.",
	})

	m.getMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "get_misses_total",
		Help: "Total number of lookups of keys with no live value.",
	})

	m.appendsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "appends_failed_total",
		Help: "Total number of log appends that failed.",
	})

	m.recoveredRecords = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recovered_records_total",
		Help: "Total number of records replayed while opening the log.",
	})

	m.appendDuration = prometheus.NewSummary(prometheus.SummaryOpts{
		Name:       "append_duration_seconds",
		Help:       "Duration of a log append including fsync.",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	})

	m.liveKeys = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "live_keys",
		Help: "Number of keys with a live value.",
	})

	m.logSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "log_size_bytes",
		Help: "Size of the log file in bytes.",
	})

	if registerer != nil {
		registerer.MustRegister(
			m.puts,
			m.deletes,
			m.gets,
			m.getMisses,
			m.appendsFailed,
			m.recoveredRecords,
			m.appendDuration,
			m.liveKeys,
			m.logSize,
		)
	}

	return m
}
