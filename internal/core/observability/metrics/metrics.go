// Package metrics exports tree execution metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zeusync/behave/internal/core/bt"
	"github.com/zeusync/behave/internal/core/events/bus"
	"github.com/zeusync/behave/internal/core/runner"
)

var _ runner.TickObserver = (*Collector)(nil)

// Collector owns a private registry with the engine metrics and, optionally, the
// Go runtime and process collectors.
type Collector struct {
	registry *prometheus.Registry

	Ticks        *prometheus.CounterVec
	TickDuration *prometheus.HistogramVec
	Completions  *prometheus.CounterVec
	Trees        prometheus.Gauge

	sub bus.Subscription
}

// New registers the engine metrics under namespace.
func New(namespace string, runtime bool) (*Collector, error) {
	if namespace == "" {
		return nil, errors.New("metrics namespace is required")
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		Ticks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ticks_total",
				Help:      "Tree ticks by resulting status.",
			},
			[]string{"tree", "status"},
		),
		TickDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tick_duration_seconds",
				Help:      "Wall time spent in one tree tick.",
				Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
			},
			[]string{"tree"},
		),
		Completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "completions_total",
				Help:      "Running to finished transitions by final status.",
			},
			[]string{"tree", "status"},
		),
		Trees: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "trees",
				Help:      "Trees currently managed by the runner.",
			},
		),
	}

	cs := []prometheus.Collector{c.Ticks, c.TickDuration, c.Completions, c.Trees}
	if runtime {
		cs = append(cs,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	for _, col := range cs {
		if err := c.registry.Register(col); err != nil {
			return nil, errors.Wrap(err, "register metrics")
		}
	}
	return c, nil
}

func (c *Collector) ObserveTick(name string, status bt.Status, took time.Duration) {
	c.Ticks.WithLabelValues(name, status.String()).Inc()
	c.TickDuration.WithLabelValues(name).Observe(took.Seconds())
}

func (c *Collector) SetTrees(n int) {
	c.Trees.Set(float64(n))
}

// Subscribe counts completions published by the runner. Calling it again replaces
// the previous subscription.
func (c *Collector) Subscribe(b bus.EventBus) error {
	sub, err := b.Subscribe(runner.EventCompleted, func(e bus.Event) error {
		done, ok := e.Data().(runner.CompletionEvent)
		if !ok {
			return errors.Newf("unexpected %s payload %T", runner.EventCompleted, e.Data())
		}
		c.Completions.WithLabelValues(done.Name, done.Status.String()).Inc()
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "subscribe completions")
	}
	if c.sub != nil {
		_ = c.sub.Cancel()
	}
	c.sub = sub
	return nil
}

// Close drops the bus subscription.
func (c *Collector) Close() {
	if c.sub != nil {
		_ = c.sub.Cancel()
		c.sub = nil
	}
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
