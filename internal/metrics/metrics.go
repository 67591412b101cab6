// Package metrics exposes Prometheus metrics for data loads and the HTTP
// surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"vaxmap/internal/dashboard"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vaxmap"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	loadsTotal    *prometheus.CounterVec
	loadDuration  prometheus.Histogram
	features      prometheus.Gauge
	counted       prometheus.Gauge
	averageRate   prometheus.Gauge
	bandCounties  *prometheus.GaugeVec
	lastLoadTime  prometheus.Gauge
	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry. withRuntime adds the Go
// and process collectors.
func New(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		loadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "data_loads_total",
			Help:      "Dataset load attempts by result",
		}, []string{"result"}),
		loadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "data_load_duration_seconds",
			Help:      "Time to fetch and decode the dataset",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		features: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "features",
			Help:      "Counties in the current dataset",
		}),
		counted: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "features_with_rate",
			Help:      "Counties with a positive vaccination rate",
		}),
		averageRate: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "average_vaccination_rate_percent",
			Help:      "Average vaccination rate of counties with a positive rate",
		}),
		bandCounties: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "band_counties",
			Help:      "Counties per vaccination band",
		}, []string{"band"}),
		lastLoadTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_load_timestamp_seconds",
			Help:      "Unix time of the last successful load",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		httpDurations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) LoadSucceeded(ds *dashboard.Dataset, took time.Duration) {
	m.loadsTotal.WithLabelValues("success").Inc()
	m.loadDuration.Observe(took.Seconds())
	m.features.Set(float64(ds.Len()))
	m.counted.Set(float64(ds.Stats.Counted))
	m.averageRate.Set(ds.Stats.Average)
	for _, b := range ds.Histogram {
		m.bandCounties.WithLabelValues(b.Label).Set(float64(b.Count))
	}
	m.lastLoadTime.Set(float64(ds.LoadedAt.Unix()))
}

func (m *Metrics) LoadFailed(_ string, _ error, took time.Duration) {
	m.loadsTotal.WithLabelValues("error").Inc()
	m.loadDuration.Observe(took.Seconds())
}

// GinMiddleware records request counts and latency per route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDurations.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
