package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingest Prometheus metrics.
var (
	DocumentsIndexedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vectorstore",
			Name:      "documents_indexed_total",
			Help:      "Total number of documents written to the store",
		},
		[]string{"kind"}, // "cv" / "jd"
	)

	SectionsIndexedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vectorstore",
			Name:      "sections_indexed_total",
			Help:      "Total number of sections written to the store",
		},
		[]string{"kind"},
	)

	IngestFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vectorstore",
			Name:      "ingest_failures_total",
			Help:      "Total number of failed ingest runs",
		},
		[]string{"kind"},
	)
)

var ingestMetricsRegistered bool

// RegisterIngestMetrics registers Prometheus ingest metrics. Must be called once from main.
func RegisterIngestMetrics() {
	if ingestMetricsRegistered {
		return
	}
	prometheus.MustRegister(DocumentsIndexedTotal)
	prometheus.MustRegister(SectionsIndexedTotal)
	prometheus.MustRegister(IngestFailuresTotal)
	ingestMetricsRegistered = true
}
