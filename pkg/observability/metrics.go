package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/twsgraph/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the pipeline.
type Metrics struct {
	registry *prometheus.Registry

	parseDuration *prometheus.HistogramVec
	parseErrors   *prometheus.CounterVec
	buildDuration *prometheus.HistogramVec
	graphNodes    prometheus.Gauge
	graphLinks    prometheus.Gauge
	filters       *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on a private registry,
// so several instances can coexist in tests.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		parseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "twsgraph_parse_duration_seconds",
				Help:    "Duration of input file parsing",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"role"},
		),
		parseErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twsgraph_parse_errors_total",
				Help: "Total number of input files that failed to parse",
			},
			[]string{"role"},
		),
		buildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "twsgraph_build_duration_seconds",
				Help:    "Duration of graph builds",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"mode"},
		),
		graphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "twsgraph_graph_nodes",
			Help: "Number of nodes in the last built graph",
		}),
		graphLinks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "twsgraph_graph_links",
			Help: "Number of links in the last built graph",
		}),
		filters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twsgraph_filter_total",
				Help: "Total number of reachability filters by outcome",
			},
			[]string{"result"},
		),
	}
	m.registry.MustRegister(
		m.parseDuration,
		m.parseErrors,
		m.buildDuration,
		m.graphNodes,
		m.graphLinks,
		m.filters,
		prometheus.NewGoCollector(),
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record metrics.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnParse: func(_ context.Context, e *domain.ParseEvent) {
			role := string(e.Role)
			if e.Err != nil {
				m.parseErrors.WithLabelValues(role).Inc()
				return
			}
			m.parseDuration.WithLabelValues(role).Observe(e.Duration.Seconds())
		},
		OnBuild: func(_ context.Context, e *domain.BuildEvent) {
			if e.Err != nil {
				return
			}
			m.buildDuration.WithLabelValues(string(e.Mode)).Observe(e.Duration.Seconds())
			m.graphNodes.Set(float64(e.Nodes))
			m.graphLinks.Set(float64(e.Links))
		},
		OnFilter: func(_ context.Context, e *domain.FilterEvent) {
			result := "found"
			switch {
			case e.Focus == "":
				result = "unfiltered"
			case !e.Found:
				result = "not_found"
			}
			m.filters.WithLabelValues(result).Inc()
		},
	}
}
