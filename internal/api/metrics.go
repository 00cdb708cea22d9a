package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one server. Each server owns a
// private registry so tests can build many servers.
type Metrics struct {
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	liquidations    *prometheus.CounterVec
	comparisons     *prometheus.CounterVec
}

// NewMetrics registers the collectors in a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mesada_http_request_duration_seconds",
				Help:    "Duration of HTTP requests by route pattern and status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "status"},
		),
		liquidations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mesada_liquidations_total",
				Help: "Liquidations run, by variant and outcome.",
			},
			[]string{"variant", "outcome"},
		),
		comparisons: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mesada_comparisons_total",
				Help: "Comparisons run, by axis and outcome.",
			},
			[]string{"by", "outcome"},
		),
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// IncrLiquidation counts one liquidation run
func (m *Metrics) IncrLiquidation(variant string, err error) {
	m.liquidations.WithLabelValues(variant, outcome(err)).Inc()
}

// IncrComparison counts one comparison run
func (m *Metrics) IncrComparison(by string, err error) {
	m.comparisons.WithLabelValues(by, outcome(err)).Inc()
}

// Middleware observes request durations labelled with the matched chi route
// pattern, so path parameters do not explode the label space.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
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
		m.requestDuration.WithLabelValues(route, http.StatusText(status)).Observe(time.Since(start).Seconds())
	})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
