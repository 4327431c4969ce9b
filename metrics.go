package goelastic

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores the driver's query metrics.
type Metrics struct {
	statements        *prometheus.CounterVec
	statementDuration *prometheus.HistogramVec
	arrayColumns      prometheus.Counter
	httpRequests      *prometheus.CounterVec
}

func newMetrics() *Metrics {
	var m Metrics
	m.statements = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "goelastic",
		Name:      "statements_total",
		Help:      "Number of statements executed by cursors, by statement kind and outcome.",
	}, []string{"kind", "status"})

	m.statementDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "goelastic",
		Name:      "statement_duration_seconds",
		Help:      "Time spent executing a statement, including every HTTP round trip.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})

	m.arrayColumns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "goelastic",
		Name:      "array_columns_detected_total",
		Help:      "Number of array columns reported by SHOW ARRAY_COLUMNS.",
	})

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "goelastic",
		Name:      "http_requests_total",
		Help:      "Number of HTTP requests sent to the cluster, by endpoint and status code.",
	}, []string{"endpoint", "code"})
	return &m
}

// Register registers the metrics to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.statements, m.statementDuration, m.arrayColumns, m.httpRequests} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) observeStatement(kind statementKind, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.statements.WithLabelValues(kind.String(), status).Inc()
	m.statementDuration.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())
}

var driverMetrics = newMetrics()

// RegisterMetrics exposes the driver metrics on reg. It can be called once per
// registerer.
func RegisterMetrics(reg prometheus.Registerer) error {
	return driverMetrics.Register(reg)
}
