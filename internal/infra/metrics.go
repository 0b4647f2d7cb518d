package infra

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for the platform core.
type Metrics struct {
	EventsRelayed  *prometheus.CounterVec
	RelayErrors    prometheus.Counter
	RelayBatchSize prometheus.Histogram
	OutboxLag      prometheus.Gauge
}

// NewMetrics registers the platform metrics on a fresh registry and returns
// both. A dedicated registry keeps test processes from colliding on the
// default global one.
func NewMetrics() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		EventsRelayed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sabong_outbox_events_relayed_total",
			Help: "Domain events relayed from the outbox to Kafka, by event type.",
		}, []string{"event_type"}),
		RelayErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "sabong_outbox_relay_errors_total",
			Help: "Failed publish or mark-published attempts in the outbox relay.",
		}),
		RelayBatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sabong_outbox_relay_batch_size",
			Help:    "Events picked up per outbox poll.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
		OutboxLag: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sabong_outbox_oldest_unpublished_age_seconds",
			Help: "Age of the oldest unpublished outbox event at the last poll.",
		}),
	}
	return m, reg
}

// HealthFunc reports whether a dependency is reachable.
type HealthFunc func(ctx context.Context) error

// StartMetricsServer serves /metrics and /healthz on the given port in a
// background goroutine and returns the server for shutdown.
func StartMetricsServer(port int, reg *prometheus.Registry, healthFn HealthFunc) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := healthFn(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, "unhealthy: %v", err)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	go func() {
		_ = srv.ListenAndServe()
	}()
	return srv
}
