// Package metrics exposes Prometheus metrics derived from subset and HTTP
// events.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	eventbus "github.com/hanpama/schemasubset/internal/eventbus"
	events "github.com/hanpama/schemasubset/internal/events"
)

// Collector owns a private registry so several collectors can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	subsetRuns     *prometheus.CounterVec
	subsetDuration prometheus.Histogram
	prunedTotal    *prometheus.CounterVec
	typesRetained  prometheus.Histogram
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

func New() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.subsetRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schemasubset_runs_total",
			Help: "Subset runs by outcome",
		},
		[]string{"result"},
	)
	c.subsetDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schemasubset_run_duration_seconds",
		Help:    "Subset run duration in seconds",
		Buckets: prometheus.DefBuckets,
	})
	c.prunedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schemasubset_pruned_total",
			Help: "Definitions removed, by pruning pass",
		},
		[]string{"pass"},
	)
	c.typesRetained = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schemasubset_types_retained",
		Help:    "Types left in the schema after a successful run",
		Buckets: prometheus.ExponentialBuckets(4, 2, 10),
	})
	c.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schemasubset_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)
	c.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "schemasubset_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	c.registry.MustRegister(
		c.subsetRuns,
		c.subsetDuration,
		c.prunedTotal,
		c.typesRetained,
		c.httpRequests,
		c.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Register subscribes c to the event bus.
func (c *Collector) Register() (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(_ context.Context, e events.SubsetPass) {
			c.prunedTotal.WithLabelValues(e.Pass).Add(float64(e.Removed))
		}),
		eventbus.Subscribe(func(_ context.Context, e events.SubsetFinish) {
			result := "ok"
			if e.Err != nil {
				result = "error"
			} else {
				c.typesRetained.Observe(float64(e.TypesAfter))
			}
			c.subsetRuns.WithLabelValues(result).Inc()
			c.subsetDuration.Observe(e.Duration.Seconds())
		}),
		eventbus.Subscribe(func(_ context.Context, e events.HTTPFinish) {
			c.httpRequests.WithLabelValues(e.Request.Method, strconv.Itoa(e.Status)).Inc()
			c.httpDuration.WithLabelValues(e.Request.Method).Observe(e.Duration.Seconds())
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Handler serves the collector's registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
