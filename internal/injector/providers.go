package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/behave/internal/config"
	"github.com/zeusync/behave/internal/core/bt/loader"
	"github.com/zeusync/behave/internal/core/events/bus"
	"github.com/zeusync/behave/internal/core/inspect"
	"github.com/zeusync/behave/internal/core/observability/log"
	"github.com/zeusync/behave/internal/core/observability/metrics"
	"github.com/zeusync/behave/internal/core/runner"
)

var ProviderSet = wire.NewSet(
	ProvideLogger,
	bus.New,
	ProvideMetrics,
	ProvideRunner,
	ProvideInspector,
	ProvideRegistry,
	wire.Struct(new(Engine), "*"),
)

func ProvideLogger(cfg *config.Config) (log.Log, func(), error) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	l := log.New(level)
	return l, func() { _ = l.Sync() }, nil
}

// ProvideMetrics builds the collector and hooks it to completion events.
func ProvideMetrics(cfg *config.Config, b bus.EventBus) (*metrics.Collector, func(), error) {
	c, err := metrics.New(cfg.Metrics.Namespace, cfg.Metrics.Runtime)
	if err != nil {
		return nil, nil, err
	}
	if err = c.Subscribe(b); err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}

func ProvideRunner(cfg *config.Config, l log.Log, b bus.EventBus, m *metrics.Collector) (*runner.Runner, func()) {
	r := runner.New(
		runner.WithWorkers(cfg.Runner.Workers),
		runner.WithBus(b),
		runner.WithLogger(l),
		runner.WithObserver(m),
	)
	return r, r.Close
}

func ProvideInspector(l log.Log) (*inspect.Server, func()) {
	s := inspect.NewServer(l)
	return s, s.Close
}

// ProvideRegistry returns a registry preloaded with the builtin calls.
func ProvideRegistry(l log.Log) *loader.Registry {
	reg := loader.NewRegistry()
	loader.RegisterBuiltins(reg, l.Named("bt"))
	return reg
}
