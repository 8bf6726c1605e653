// Package injector wires the driver's components together with google/wire.
package injector

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/zeusync/behave/internal/config"
	"github.com/zeusync/behave/internal/core/bt"
	"github.com/zeusync/behave/internal/core/bt/loader"
	"github.com/zeusync/behave/internal/core/events/bus"
	"github.com/zeusync/behave/internal/core/inspect"
	"github.com/zeusync/behave/internal/core/observability/log"
	"github.com/zeusync/behave/internal/core/observability/metrics"
	"github.com/zeusync/behave/internal/core/runner"
)

type Engine struct {
	Config    *config.Config
	Logger    log.Log
	Bus       bus.EventBus
	Metrics   *metrics.Collector
	Runner    *runner.Runner
	Inspector *inspect.Server
	Registry  *loader.Registry
}

// LoadTrees builds every tree listed in the config and hands it to the runner.
// Trees from one file share its definition but nothing else. When a file is
// spawned more than once the copies are named "<name>-<n>".
func (e *Engine) LoadTrees() ([]string, error) {
	var ids []string
	for i, tc := range e.Config.Trees {
		def, err := loader.LoadFile(tc.Path)
		if err != nil {
			return ids, errors.Wrapf(err, "trees[%d]", i)
		}
		count := max(tc.Count, 1)
		for n := 0; n < count; n++ {
			opts := []bt.Option{bt.WithLogger(e.Logger)}
			if count > 1 {
				opts = append(opts, bt.WithName(fmt.Sprintf("%s-%d", def.Name, n)))
			}
			tree, err := def.BuildTree(e.Registry, opts...)
			if err != nil {
				return ids, errors.Wrapf(err, "trees[%d]", i)
			}
			ids = append(ids, e.Runner.Add(tree))
		}
		e.Logger.Info("trees loaded",
			log.String("path", tc.Path),
			log.String("tree", def.Name),
			log.Int("count", count))
	}
	return ids, nil
}

// Frame captures every managed tree, each under its runner lock.
func (e *Engine) Frame(seq uint64) inspect.Frame {
	f := inspect.Frame{Seq: seq, Time: time.Now()}
	for _, id := range e.Runner.IDs() {
		_ = e.Runner.With(id, func(tree *bt.BehaviorTree) {
			s := inspect.Capture(tree)
			s.ID = id
			f.Trees = append(f.Trees, s)
		})
	}
	return f
}
