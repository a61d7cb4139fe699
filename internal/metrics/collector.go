package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector counts finished arcs for export in the Prometheus text format.
// It is safe for concurrent use by arcs propagating in parallel.
type Collector struct {
	registry     *prometheus.Registry
	arcs         *prometheus.CounterVec
	steps        *prometheus.CounterVec
	terminations *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		arcs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "propsetup",
			Name:      "arcs_propagated_total",
			Help:      "Propagated arcs by state type.",
		}, []string{"type"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "propsetup",
			Name:      "integration_steps_total",
			Help:      "Accepted integration steps by state type.",
		}, []string{"type"}),
		terminations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "propsetup",
			Name:      "terminations_total",
			Help:      "Finished arcs by termination reason.",
		}, []string{"reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "propsetup",
			Name:      "arc_duration_seconds",
			Help:      "Wall-clock time spent propagating one arc.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"type"}),
	}
	c.registry.MustRegister(c.arcs, c.steps, c.terminations, c.duration)
	return c
}

func (c *Collector) ObserveArc(kind string, steps int, reason string, elapsed time.Duration) {
	c.arcs.WithLabelValues(kind).Inc()
	c.steps.WithLabelValues(kind).Add(float64(steps))
	c.terminations.WithLabelValues(reason).Inc()
	c.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (c *Collector) Gatherer() prometheus.Gatherer { return c.registry }

// WriteTextfile writes the current values in the node-exporter textfile
// format.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
