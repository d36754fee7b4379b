// Package metrics holds the Prometheus collectors exported by the server.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	HighlightsSaved      prometheus.Counter
	ValidationFailures   *prometheus.CounterVec
	GeometryDegradations *prometheus.CounterVec
	DocumentsUploaded    prometheus.Counter
}

// New registers every collector on reg. Passing a fresh registry keeps
// tests independent of the process-wide default one.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "markpdf_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "markpdf_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		HighlightsSaved: f.NewCounter(prometheus.CounterOpts{
			Name: "markpdf_highlights_saved_total",
			Help: "Total number of highlights persisted",
		}),

		ValidationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "markpdf_highlight_validation_failures_total",
			Help: "Highlight submissions rejected by the normalizer, by error kind",
		}, []string{"kind"}),

		GeometryDegradations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "markpdf_geometry_degradations_total",
			Help: "Invalid rectangles replaced by the zero rectangle, by field",
		}, []string{"field"}),

		DocumentsUploaded: f.NewCounter(prometheus.CounterOpts{
			Name: "markpdf_documents_uploaded_total",
			Help: "Total number of PDF documents uploaded",
		}),
	}
}

func (m *Metrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
