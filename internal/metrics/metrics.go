// Package metrics exposes Prometheus counters for the editor pipeline, the
// HTTP surface and the history worker. A nil *Metrics records nothing.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/benvon/pimtask/internal/editor"
	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pimtask"

// Submit outcomes
const (
	OutcomeCommitted = "committed"
	OutcomeCascaded  = "cascaded"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Metrics owns a private registry so tests and processes do not share state
type Metrics struct {
	registry *prometheus.Registry
	submits  *prometheus.CounterVec
	requests *prometheus.HistogramVec
	jobs     *prometheus.CounterVec
}

// New builds the collectors and registers them with Go and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		submits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "editor",
			Name:      "submits_total",
			Help:      "Submitted drafts by outcome.",
		}, []string{"outcome"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "jobs_total",
			Help:      "Processed task events by type and result.",
		}, []string{"type", "result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.submits,
		m.requests,
		m.jobs,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveSubmit counts one submit by its outcome
func (m *Metrics) ObserveSubmit(result *editor.Result, err error) {
	if m == nil {
		return
	}
	m.submits.WithLabelValues(SubmitOutcome(result, err)).Inc()
}

// SubmitOutcome classifies a submit result
func SubmitOutcome(result *editor.Result, err error) string {
	switch {
	case editor.IsValidationError(err):
		return OutcomeRejected
	case err != nil:
		return OutcomeFailed
	case result != nil && result.Successor != nil:
		return OutcomeCascaded
	default:
		return OutcomeCommitted
	}
}

// ObserveJob counts one processed queue job
func (m *Metrics) ObserveJob(jobType string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.jobs.WithLabelValues(jobType, result).Inc()
}

// Middleware records request latency labelled with the mux route template,
// so path parameters do not blow up label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured := httpsnoop.CaptureMetrics(next, w, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(captured.Code)).Observe(captured.Duration.Seconds())
	})
}
