// Package metrics exposes Prometheus counters/gauges over the running
// pipeline, the way Chapter13/prom_http registers a counter and serves
// it through promhttp.Handler. It lets an operator watch spec.md §8's
// bounded-occupancy and no-leak invariants from outside the process.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/corelane/strpipe/pipeline"
)

// Collectors bundles the counters/gauges the debug HTTP surface
// registers against a private Prometheus registry.
type Collectors struct {
	Registry      *prometheus.Registry
	ItemsPlaced   *prometheus.CounterVec
	ItemsReleased *prometheus.CounterVec
	QueueDepth    *prometheus.GaugeVec

	mu       sync.Mutex
	lastSeen map[string][2]uint64 // stage -> (placed, released) as of the last Sample
}

// NewCollectors registers and returns the pipeline's metric set
// against a private registry, so multiple pipelines (or tests) in the
// same process never collide over metric names.
func NewCollectors() *Collectors {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collectors{
		Registry: reg,
		ItemsPlaced: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "strpipe_items_placed_total",
			Help: "Total items placed on a stage's input queue.",
		}, []string{"stage"}),
		ItemsReleased: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "strpipe_items_released_total",
			Help: "Total items released by a stage's worker.",
		}, []string{"stage"}),
		QueueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "strpipe_queue_depth",
			Help: "Current occupancy of a stage's input queue.",
		}, []string{"stage"}),
		lastSeen: make(map[string][2]uint64),
	}
}

// Sample refreshes the gauges/counters from the live stage set. It is
// safe to call repeatedly (e.g. on every /metrics scrape): each
// counter only advances by the delta since the previous sample.
func (c *Collectors) Sample(stages []*pipeline.Stage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, st := range stages {
		placed, released := st.Stats()
		prev := c.lastSeen[st.Name()]

		if delta := placed - prev[0]; delta > 0 {
			c.ItemsPlaced.WithLabelValues(st.Name()).Add(float64(delta))
		}
		if delta := released - prev[1]; delta > 0 {
			c.ItemsReleased.WithLabelValues(st.Name()).Add(float64(delta))
		}
		c.QueueDepth.WithLabelValues(st.Name()).Set(float64(st.QueueLen()))

		c.lastSeen[st.Name()] = [2]uint64{placed, released}
	}
}
