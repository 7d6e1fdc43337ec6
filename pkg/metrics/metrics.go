package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Instance is the process wide collector. Commands that expose metrics call
// Serve on it once connected.
var Instance = NewCollector()

type Collector struct {
	reg *prometheus.Registry

	Extractions        *prometheus.CounterVec // outcome label: success|failure|rejected
	ExtractionDuration prometheus.Histogram
	ExtractionRows     prometheus.Counter
	CircuitOpen        prometheus.Gauge

	DraftEvents *prometheus.CounterVec // type label

	APIRequests *prometheus.CounterVec // method and status labels
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "busscheduler_extractions_total",
			Help: "Total extraction pipeline runs by outcome.",
		}, []string{"outcome"}),
		ExtractionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "busscheduler_extraction_duration_seconds",
			Help:    "Duration of whole extraction pipeline runs.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		ExtractionRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busscheduler_extraction_rows_total",
			Help: "Total grid rows processed by the parser.",
		}),
		CircuitOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "busscheduler_parse_circuit_open",
			Help: "1 while the parse circuit breaker refuses work, 0 otherwise.",
		}),
		DraftEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "busscheduler_draft_events_total",
			Help: "Draft change events published to the queue.",
		}, []string{"type"}),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "busscheduler_api_requests_total",
			Help: "API requests served.",
		}, []string{"method", "status"}),
	}

	reg.MustRegister(
		c.Extractions, c.ExtractionDuration, c.ExtractionRows, c.CircuitOpen,
		c.DraftEvents,
		c.APIRequests,
	)

	return c
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on the given address in a background goroutine.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	log.Info().Str("listen", addr).Msg("Metrics available")

	return srv
}
