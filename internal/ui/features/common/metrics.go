package common

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/leapstack-labs/leapadmin/internal/history"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	Queries         *prometheus.CounterVec
	QueryDuration   *prometheus.HistogramVec
	ProcessesKilled *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leapadmin_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		Queries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leapadmin_queries_total",
			Help: "Total number of executed statements",
		}, []string{"driver", "status"}),
		QueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leapadmin_query_duration_seconds",
			Help:    "Statement execution time in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"driver"}),
		ProcessesKilled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leapadmin_processes_killed_total",
			Help: "Total number of server sessions killed",
		}, []string{"driver"}),
	}
}

// Middleware counts requests by route pattern and status.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	})
}

// Recorder counts executed statements and passes them on to next, which may be nil.
func (m *Metrics) Recorder(next history.Recorder) history.Recorder {
	return &metricsRecorder{m: m, next: next}
}

type metricsRecorder struct {
	m    *Metrics
	next history.Recorder
}

func (r *metricsRecorder) Record(ctx context.Context, e history.Entry) error {
	status := "ok"
	if e.Failed {
		status = "error"
	}
	r.m.Queries.WithLabelValues(e.Driver, status).Inc()
	r.m.QueryDuration.WithLabelValues(e.Driver).Observe(e.Duration.Seconds())
	if r.next == nil {
		return nil
	}
	return r.next.Record(ctx, e)
}
