// Package metrics records Prometheus metrics from lifecycle events.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hanpama/membergraph/internal/eventbus"
	"github.com/hanpama/membergraph/internal/events"
)

const namespace = "membergraph"

// Metrics holds the collectors and the registry they are registered with.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec

	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	operationDepth    prometheus.Histogram

	storeQueries       *prometheus.CounterVec
	storeQueryDuration *prometheus.HistogramVec

	loaderDispatches *prometheus.CounterVec
	loaderBatchKeys  *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, including the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		},
		[]string{"method", "code"},
	)

	m.operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graphql_operations_total",
			Help:      "GraphQL operations by type and outcome (ok, error, rejected).",
		},
		[]string{"type", "outcome"},
	)
	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graphql_operation_duration_seconds",
			Help:      "Duration of GraphQL operations.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"type"},
	)
	m.operationDepth = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graphql_operation_depth",
			Help:      "Selection depth of received operations.",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10},
		},
	)

	m.storeQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_queries_total",
			Help:      "SQL statements by operation, table and status.",
		},
		[]string{"operation", "table", "status"},
	)
	m.storeQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_query_duration_seconds",
			Help:      "Duration of SQL statements.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation", "table"},
	)

	m.loaderDispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loader_dispatches_total",
			Help:      "Loader batch calls by loader and status.",
		},
		[]string{"loader", "status"},
	)
	m.loaderBatchKeys = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "loader_batch_keys",
			Help:      "Distinct keys per loader batch call.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"loader"},
	)

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.operations,
		m.operationDuration,
		m.operationDepth,
		m.storeQueries,
		m.storeQueryDuration,
		m.loaderDispatches,
		m.loaderBatchKeys,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Register subscribes the collectors to bus and returns a function removing
// them.
func (m *Metrics) Register(bus *eventbus.Bus) (unsubscribe func()) {
	unsubs := []func(){
		eventbus.SubscribeTo(bus, func(_ context.Context, e events.HTTPFinish) {
			m.httpRequests.WithLabelValues(e.Request.Method, strconv.Itoa(e.Status)).Inc()
		}),
		eventbus.SubscribeTo(bus, func(_ context.Context, e events.GraphQLFinish) {
			opType := e.OperationType
			if opType == "" {
				opType = "unknown"
			}
			m.operations.WithLabelValues(opType, outcome(e)).Inc()
			m.operationDuration.WithLabelValues(opType).Observe(e.Duration.Seconds())
			m.operationDepth.Observe(float64(e.Depth))
		}),
		eventbus.SubscribeTo(bus, func(_ context.Context, e events.StoreQueryFinish) {
			m.storeQueries.WithLabelValues(e.Operation, e.Table, status(e.Err)).Inc()
			m.storeQueryDuration.WithLabelValues(e.Operation, e.Table).Observe(e.Duration.Seconds())
		}),
		eventbus.SubscribeTo(bus, func(_ context.Context, e events.LoaderDispatch) {
			m.loaderDispatches.WithLabelValues(e.Loader, status(e.Err)).Inc()
			m.loaderBatchKeys.WithLabelValues(e.Loader).Observe(float64(e.Keys))
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func outcome(e events.GraphQLFinish) string {
	switch {
	case e.Rejected:
		return "rejected"
	case len(e.Errors) > 0:
		return "error"
	}
	return "ok"
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
