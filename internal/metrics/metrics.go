package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	BackendRequests *prometheus.CounterVec
	BackendLatency  *prometheus.HistogramVec
	Logins          *prometheus.CounterVec
	Submissions     *prometheus.CounterVec
	Uploads         *prometheus.CounterVec
	OrphanedUploads prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cms_console",
			Name:      "backend_requests_total",
			Help:      "Requests sent to the content backend.",
		}, []string{"code", "method"}),
		BackendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cms_console",
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of content backend requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"code", "method"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cms_console",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cms_console",
			Name:      "form_submissions_total",
			Help:      "Content form submissions by mode and outcome.",
		}, []string{"mode", "outcome"}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cms_console",
			Name:      "uploads_total",
			Help:      "Image uploads by outcome.",
		}, []string{"outcome"}),
		OrphanedUploads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cms_console",
			Name:      "orphaned_uploads_total",
			Help:      "Uploaded files whose form was abandoned before submission.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.BackendRequests,
		m.BackendLatency,
		m.Logins,
		m.Submissions,
		m.Uploads,
		m.OrphanedUploads,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// InstrumentTransport wraps next so every backend round trip is counted and timed.
func (m *Metrics) InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return promhttp.InstrumentRoundTripperCounter(m.BackendRequests,
		promhttp.InstrumentRoundTripperDuration(m.BackendLatency, next))
}
