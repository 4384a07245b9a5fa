package server

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kiranandcode/axiom-profiler-2/pkg/observability"
)

const metricsNamespace = "axiom_profiler"

// Metrics implements the observability hooks on Prometheus collectors.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	GraphNodes        prometheus.Gauge
	GraphEdges        prometheus.Gauge
	ViewsTotal        *prometheus.CounterVec
	ViewDuration      prometheus.Histogram
	VisibleNodes      prometheus.Gauge
	SubgraphsTotal    *prometheus.CounterVec
	SubgraphDuration  prometheus.Histogram
	CacheLookupsTotal *prometheus.CounterVec
	CacheWrittenBytes *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		GraphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "graph",
			Name:      "nodes",
			Help:      "Nodes in the loaded instantiation graph.",
		}),
		GraphEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "graph",
			Name:      "edges",
			Help:      "Edges in the loaded instantiation graph.",
		}),
		ViewsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "graph",
			Name:      "views_total",
			Help:      "Filter chain applications by result.",
		}, []string{"result"}),
		ViewDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "graph",
			Name:      "view_duration_seconds",
			Help:      "Time to apply a filter chain and disablers.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		VisibleNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "graph",
			Name:      "visible_nodes",
			Help:      "Visible nodes in the current view.",
		}),
		SubgraphsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "graph",
			Name:      "subgraphs_total",
			Help:      "Reachability subgraph constructions by result.",
		}, []string{"result"}),
		SubgraphDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "graph",
			Name:      "subgraph_duration_seconds",
			Help:      "Time to build a subgraph and its transitive closure.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		CacheLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by key type and result.",
		}, []string{"key_type", "result"}),
		CacheWrittenBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "written_bytes_total",
			Help:      "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
	}
	reg.MustRegister(
		m.RequestsTotal, m.RequestDuration,
		m.GraphNodes, m.GraphEdges,
		m.ViewsTotal, m.ViewDuration, m.VisibleNodes,
		m.SubgraphsTotal, m.SubgraphDuration,
		m.CacheLookupsTotal, m.CacheWrittenBytes,
	)
	return m
}

// Install registers m as the engine, cache and server hooks.
func (m *Metrics) Install() {
	observability.SetEngineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetServerHooks(m)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// OnGraphBuilt implements observability.EngineHooks.
func (m *Metrics) OnGraphBuilt(_ context.Context, nodes, edges int, _ time.Duration, err error) {
	if err != nil {
		return
	}
	m.GraphNodes.Set(float64(nodes))
	m.GraphEdges.Set(float64(edges))
}

// OnViewApplied implements observability.EngineHooks.
func (m *Metrics) OnViewApplied(_ context.Context, _, visible int, d time.Duration, err error) {
	m.ViewsTotal.WithLabelValues(result(err)).Inc()
	m.ViewDuration.Observe(d.Seconds())
	if err == nil {
		m.VisibleNodes.Set(float64(visible))
	}
}

// OnSubgraphBuilt implements observability.EngineHooks.
func (m *Metrics) OnSubgraphBuilt(_ context.Context, _ int, d time.Duration, err error) {
	m.SubgraphsTotal.WithLabelValues(result(err)).Inc()
	m.SubgraphDuration.Observe(d.Seconds())
}

// OnCacheHit implements observability.CacheHooks.
func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheLookupsTotal.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheLookupsTotal.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.CacheWrittenBytes.WithLabelValues(keyType).Add(float64(size))
}

// OnRequest implements observability.ServerHooks.
func (m *Metrics) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

var (
	_ observability.EngineHooks = (*Metrics)(nil)
	_ observability.CacheHooks  = (*Metrics)(nil)
	_ observability.ServerHooks = (*Metrics)(nil)
)
