package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Telemetry exposes pipeline counters. A nil *Telemetry is valid and records
// nothing, so callers never need to guard.
type Telemetry struct {
	QueriesTotal     prometheus.Counter
	QueryFailures    prometheus.Counter
	NodeDegradations *prometheus.CounterVec
	EmbeddingDrops   prometheus.Counter
	WebSearchErrors  prometheus.Counter
	IndexBuilds      prometheus.Counter
	IndexChunks      prometheus.Gauge
	InFlight         prometheus.Gauge
	QueueRejections  prometheus.Counter
}

// New registers the metric set on the given registerer. Pass
// prometheus.DefaultRegisterer in production; tests use a private registry.
func New(reg prometheus.Registerer) *Telemetry {
	t := &Telemetry{
		QueriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "patrick_queries_total",
			Help: "Queries accepted for processing.",
		}),
		QueryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "patrick_query_failures_total",
			Help: "Queries that resolved to a degraded answer.",
		}),
		NodeDegradations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patrick_node_degradations_total",
			Help: "Pipeline node failures degraded to neutral state.",
		}, []string{"node"}),
		EmbeddingDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "patrick_embedding_drops_total",
			Help: "Chunks dropped after repeated embedding failures.",
		}),
		WebSearchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "patrick_web_search_errors_total",
			Help: "Web search calls that returned an error.",
		}),
		IndexBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "patrick_index_builds_total",
			Help: "Completed index builds.",
		}),
		IndexChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "patrick_index_chunks",
			Help: "Chunks in the currently published index.",
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "patrick_in_flight_queries",
			Help: "Queries currently being processed.",
		}),
		QueueRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "patrick_queue_rejections_total",
			Help: "Queries rejected because the queue was full.",
		}),
	}
	reg.MustRegister(
		t.QueriesTotal, t.QueryFailures, t.NodeDegradations, t.EmbeddingDrops,
		t.WebSearchErrors, t.IndexBuilds, t.IndexChunks, t.InFlight, t.QueueRejections,
	)
	return t
}

func (t *Telemetry) IncQueries() {
	if t != nil {
		t.QueriesTotal.Inc()
	}
}

func (t *Telemetry) IncQueryFailures() {
	if t != nil {
		t.QueryFailures.Inc()
	}
}

func (t *Telemetry) IncNodeDegradation(node string) {
	if t != nil {
		t.NodeDegradations.WithLabelValues(node).Inc()
	}
}

func (t *Telemetry) IncEmbeddingDrops() {
	if t != nil {
		t.EmbeddingDrops.Inc()
	}
}

func (t *Telemetry) IncWebSearchErrors() {
	if t != nil {
		t.WebSearchErrors.Inc()
	}
}

func (t *Telemetry) RecordIndexBuild(chunks int) {
	if t != nil {
		t.IndexBuilds.Inc()
		t.IndexChunks.Set(float64(chunks))
	}
}

func (t *Telemetry) AddInFlight(delta float64) {
	if t != nil {
		t.InFlight.Add(delta)
	}
}

func (t *Telemetry) IncQueueRejections() {
	if t != nil {
		t.QueueRejections.Inc()
	}
}
