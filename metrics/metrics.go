// Package metrics exports injector activity to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danpasecinic/spindle"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Collector counts resolutions and registrations of one or more
// injectors. Its metrics live in a registry of their own.
type Collector struct {
	registry *prometheus.Registry

	Resolutions     *prometheus.CounterVec
	ResolveDuration *prometheus.HistogramVec
	Bindings        *prometheus.CounterVec
}

func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	resolutions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Total number of key resolutions",
		},
		[]string{"key", "outcome"},
	)

	resolveDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Key resolution duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"key"},
	)

	bindings := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bindings_total",
			Help:      "Total number of registered bindings",
		},
		[]string{"kind"},
	)

	registry.MustRegister(resolutions, resolveDuration, bindings)

	return &Collector{
		registry:        registry,
		Resolutions:     resolutions,
		ResolveDuration: resolveDuration,
		Bindings:        bindings,
	}
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) ObserveResolve(key string, duration time.Duration, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	c.Resolutions.WithLabelValues(key, outcome).Inc()
	c.ResolveDuration.WithLabelValues(key).Observe(duration.Seconds())
}

func (c *Collector) ObserveBind(_ string, kind string) {
	c.Bindings.WithLabelValues(kind).Inc()
}

// Options hooks the collector into an injector.
func (c *Collector) Options() []spindle.Option {
	return []spindle.Option{
		spindle.WithResolveObserver(c.ObserveResolve),
		spindle.WithBindObserver(c.ObserveBind),
	}
}
