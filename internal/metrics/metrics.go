package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ust-lookup/internal/join"
)

const namespace = "ustlookup"

// Metrics holds the lookup collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	Lookups        *prometheus.CounterVec
	JoinStages     *prometheus.CounterVec
	LookupDuration prometheus.Histogram
	DatasetReloads *prometheus.CounterVec
	DatasetRows    *prometheus.GaugeVec
}

// New registers the collectors on a fresh registry along with the Go and
// process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Lookups by outcome.",
		}, []string{"outcome"}),
		JoinStages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "join_stage_total",
			Help:      "Detail table joins by the stage that produced rows.",
		}, []string{"table", "stage"}),
		LookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Time spent resolving and assembling a lookup.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		DatasetReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_reloads_total",
			Help:      "Dataset reloads by result.",
		}, []string{"result"}),
		DatasetRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows loaded per source table.",
		}, []string{"table"}),
	}
	m.registry.MustRegister(
		m.Lookups, m.JoinStages, m.LookupDuration, m.DatasetReloads, m.DatasetRows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveLookup counts a lookup and records its duration
func (m *Metrics) ObserveLookup(outcome string, took time.Duration) {
	m.Lookups.WithLabelValues(outcome).Inc()
	m.LookupDuration.Observe(took.Seconds())
}

// JoinStage counts the stage a detail table join settled on
func (m *Metrics) JoinStage(table string, stage join.Stage) {
	m.JoinStages.WithLabelValues(table, string(stage)).Inc()
}

// ObserveReload counts a dataset reload
func (m *Metrics) ObserveReload(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.DatasetReloads.WithLabelValues(result).Inc()
}

// SetTableRows records the row count of a loaded table
func (m *Metrics) SetTableRows(table string, rows int) {
	m.DatasetRows.WithLabelValues(table).Set(float64(rows))
}

// Registry exposes the registry for tests and custom handlers
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
