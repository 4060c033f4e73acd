package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of the service on a private registry
type Metrics struct {
	registry *prometheus.Registry

	SessionsIssued      prometheus.Counter
	SessionsConsumed    *prometheus.CounterVec
	FingerprintMismatch *prometheus.CounterVec
	ResultsRecorded     *prometheus.CounterVec
	PersonalBests       prometheus.Counter
	Reconciliations     *prometheus.CounterVec
	SweepRows           *prometheus.CounterVec

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SessionsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "typeracer_sessions_issued_total",
			Help: "Test sessions issued",
		}),
		SessionsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "typeracer_sessions_consumed_total",
			Help: "Test session consumption attempts by outcome",
		}, []string{"outcome"}),
		FingerprintMismatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "typeracer_fingerprint_mismatch_total",
			Help: "Consumptions whose client fingerprint differed from the issuing one",
		}, []string{"kind"}),
		ResultsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "typeracer_results_recorded_total",
			Help: "Results recorded by owner kind",
		}, []string{"owner"}),
		PersonalBests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "typeracer_personal_bests_total",
			Help: "Results that set a new personal best",
		}),
		Reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "typeracer_reconciliations_total",
			Help: "Guest to user reconciliations by outcome",
		}, []string{"outcome"}),
		SweepRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "typeracer_sweep_rows_total",
			Help: "Rows touched by retention sweeps",
		}, []string{"kind"}),
		RequestCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		}, []string{"method", "endpoint"}),
	}

	m.registry.MustRegister(
		m.SessionsIssued,
		m.SessionsConsumed,
		m.FingerprintMismatch,
		m.ResultsRecorded,
		m.PersonalBests,
		m.Reconciliations,
		m.SweepRows,
		m.RequestCounter,
		m.RequestDuration,
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and durations. The endpoint label is
// the matched ServeMux pattern so path values do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.RequestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// StatusRecorder wraps w so middleware can read the written status
func StatusRecorder(w http.ResponseWriter) (http.ResponseWriter, func() int) {
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	return rec, func() int { return rec.status }
}
