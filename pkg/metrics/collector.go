package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "signdesk"

// Collector records store and client operations as prometheus counters. It
// satisfies storage.MetricsCollector.
type Collector struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
}

// New builds a collector registered on its own registry.
func New() *Collector {
	registry := prometheus.NewRegistry()
	operations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total number of storage and client operations",
		},
		[]string{"operation", "key", "result"},
	)
	registry.MustRegister(operations)
	return &Collector{registry: registry, operations: operations}
}

// Record increments the counter for operation. Missing labels are recorded empty.
func (c *Collector) Record(operation string, labels map[string]string) {
	if c == nil {
		return
	}
	c.operations.WithLabelValues(operation, labels["key"], labels["result"]).Inc()
}

// Registry exposes the underlying registry so hosts can serve or gather it.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Counter returns the current value for the label set, mainly for diagnostics.
func (c *Collector) Counter(operation, key, result string) prometheus.Counter {
	return c.operations.WithLabelValues(operation, key, result)
}
