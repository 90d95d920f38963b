package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "toughmon"

var (
	mu       sync.Mutex
	registry *prometheus.Registry
	gauges   map[string]prometheus.Gauge
	counters map[string]prometheus.Counter
)

// InitMetrics creates the process registry. Calling it again resets every metric.
func InitMetrics() error {
	mu.Lock()
	defer mu.Unlock()
	registry = prometheus.NewRegistry()
	gauges = make(map[string]prometheus.Gauge)
	counters = make(map[string]prometheus.Counter)
	return registry.Register(collectors.NewGoCollector())
}

func ensureInit() {
	if registry == nil {
		registry = prometheus.NewRegistry()
		gauges = make(map[string]prometheus.Gauge)
		counters = make(map[string]prometheus.Counter)
	}
}

// SetGauge sets the named gauge, registering it on first use
func SetGauge(name string, value int64) {
	mu.Lock()
	defer mu.Unlock()
	ensureInit()
	g, ok := gauges[name]
	if !ok {
		g = prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name})
		registry.MustRegister(g)
		gauges[name] = g
	}
	g.Set(float64(value))
}

// Inc increments the named counter, registering it on first use
func Inc(name string) {
	mu.Lock()
	defer mu.Unlock()
	ensureInit()
	c, ok := counters[name]
	if !ok {
		c = prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name})
		registry.MustRegister(c)
		counters[name] = c
	}
	c.Inc()
}

// Handler exposes the registry in the prometheus text format
func Handler() http.Handler {
	mu.Lock()
	defer mu.Unlock()
	ensureInit()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Close drops all metrics
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	registry = nil
	gauges = nil
	counters = nil
	return nil
}
