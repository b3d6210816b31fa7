package metrics

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the API process.
type Metrics struct {
	registry *prometheus.Registry

	// RequestsTotal tracks HTTP requests by method, route and status.
	RequestsTotal *prometheus.CounterVec

	// EventsIngested counts events accepted by the pipeline, by source.
	EventsIngested *prometheus.CounterVec

	// SideEffectFailures counts per-event side effect failures.
	// Labels: stage={enqueue,index,evaluate}
	SideEffectFailures *prometheus.CounterVec

	// AlertsFired counts notification attempts triggered by rule matches.
	AlertsFired prometheus.Counter

	// PartitionsDeleted counts index partitions removed by the retention sweeper.
	PartitionsDeleted prometheus.Counter
}

// New creates a registry with process/go collectors plus the API counters.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "soc",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		EventsIngested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "soc",
				Subsystem: "pipeline",
				Name:      "events_ingested_total",
				Help:      "Events accepted by the ingestion pipeline, by source",
			},
			[]string{"source"},
		),
		SideEffectFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "soc",
				Subsystem: "pipeline",
				Name:      "side_effect_failures_total",
				Help:      "Per-event side effect failures by stage",
			},
			[]string{"stage"},
		),
		AlertsFired: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "soc",
				Subsystem: "alerts",
				Name:      "fired_total",
				Help:      "Notification attempts triggered by rule matches",
			},
		),
		PartitionsDeleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "soc",
				Subsystem: "retention",
				Name:      "partitions_deleted_total",
				Help:      "Index partitions deleted by the retention sweeper",
			},
		),
	}

	reg.MustRegister(m.RequestsTotal, m.EventsIngested, m.SideEffectFailures, m.AlertsFired, m.PartitionsDeleted)
	return m
}

// Handler serves the registry in Prometheus scrape format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware counts completed requests per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
	}
}
