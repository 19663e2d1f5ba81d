// Package metrics exposes service counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/domain"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/ports"
)

const namespace = "deeplink"

type Collectors struct {
	registry *prometheus.Registry

	resolutions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	recorded    prometheus.Counter
	dropped     *prometheus.CounterVec
}

// New registers the collectors on a fresh registry, so several instances can
// coexist in tests.
func New() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Resolved links by client platform and redirect plan.",
		}, []string{"platform", "plan"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolution_failures_total",
			Help:      "Failed resolutions by reason.",
		}, []string{"reason"}),
		recorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_events_recorded_total",
			Help:      "Analytics events written to the store.",
		}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_events_dropped_total",
			Help:      "Analytics events lost by reason.",
		}, []string{"reason"}),
	}

	c.registry.MustRegister(
		c.resolutions,
		c.failures,
		c.recorded,
		c.dropped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collectors) ResolutionServed(platform domain.Platform, plan string) {
	c.resolutions.WithLabelValues(string(platform), plan).Inc()
}

func (c *Collectors) ResolutionFailed(reason string) {
	c.failures.WithLabelValues(reason).Inc()
}

func (c *Collectors) EventRecorded() {
	c.recorded.Inc()
}

func (c *Collectors) EventDropped(reason string) {
	c.dropped.WithLabelValues(reason).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

var _ ports.Metrics = (*Collectors)(nil)
