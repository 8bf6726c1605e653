// Package runner drives many behavior trees from one frame loop.
//
// A BehaviorTree is single-threaded. The runner confines each tree to its own
// mutex so that TickAll may fan out across trees while every individual tree is
// still ticked by one goroutine at a time.
package runner

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/zeusync/behave/internal/core/bt"
	"github.com/zeusync/behave/internal/core/events/bus"
	"github.com/zeusync/behave/internal/core/observability/log"
	"github.com/zeusync/behave/pkg/concurrent"
)

// EventCompleted is published on the bus whenever a managed tree completes.
const EventCompleted = "bt.completed"

var ErrNotFound = errors.New("tree not found")

// CompletionEvent is the payload of EventCompleted.
type CompletionEvent struct {
	TreeID string
	Name   string
	Status bt.Status
}

// TickObserver receives per-tick measurements. Implementations must be safe for
// concurrent use since TickAll reports from several goroutines.
type TickObserver interface {
	ObserveTick(name string, status bt.Status, took time.Duration)
	SetTrees(n int)
}

// Result is the outcome of one tree in a TickAll pass.
type Result struct {
	ID     string
	Name   string
	Status bt.Status
}

type Option func(*Runner)

// WithWorkers bounds TickAll parallelism; 0 ticks every tree in its own goroutine.
func WithWorkers(n int) Option {
	return func(r *Runner) { r.workers = n }
}

func WithBus(b bus.EventBus) Option {
	return func(r *Runner) { r.bus = b }
}

func WithLogger(l log.Log) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithObserver(o TickObserver) Option {
	return func(r *Runner) { r.observer = o }
}

type entry struct {
	mu     sync.Mutex
	id     string
	name   string
	tree   *bt.BehaviorTree
	cancel func()
}

type Runner struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string

	workers  int
	bus      bus.EventBus
	observer TickObserver
	logger   log.Log
}

func New(opts ...Option) *Runner {
	r := &Runner{
		entries: make(map[string]*entry),
		logger:  log.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("runner")
	return r
}

// Add takes ownership of tree and returns its id.
func (r *Runner) Add(tree *bt.BehaviorTree) string {
	e := &entry{id: uuid.NewString(), name: tree.Name(), tree: tree}
	e.cancel = tree.OnComplete(func(status bt.Status) {
		r.completed(e, status)
	})

	r.mu.Lock()
	r.entries[e.id] = e
	r.order = append(r.order, e.id)
	n := len(r.entries)
	r.mu.Unlock()

	r.logger.Debug("tree added", log.String("id", e.id), log.String("tree", e.name))
	if r.observer != nil {
		r.observer.SetTrees(n)
	}
	return e.id
}

// Spawn adds a new tree running a fresh clone of template.
func (r *Runner) Spawn(name string, template bt.Node, opts ...bt.Option) string {
	var root bt.Node
	if template != nil {
		root = template.Clone()
	}
	base := []bt.Option{bt.WithName(name), bt.WithLogger(r.logger)}
	return r.Add(bt.New(root, append(base, opts...)...))
}

// Remove closes and forgets a tree. It reports whether the id was known.
func (r *Runner) Remove(id string) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
		for i, v := range r.order {
			if v == id {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	n := len(r.entries)
	r.mu.Unlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	e.cancel()
	e.tree.Close()
	e.mu.Unlock()

	r.logger.Debug("tree removed", log.String("id", id), log.String("tree", e.name))
	if r.observer != nil {
		r.observer.SetTrees(n)
	}
	return true
}

// Close removes every tree.
func (r *Runner) Close() {
	for _, id := range r.IDs() {
		r.Remove(id)
	}
}

// Get returns the tree without locking it. Use With while TickAll may be running.
func (r *Runner) Get(id string) (*bt.BehaviorTree, bool) {
	e, ok := r.entry(id)
	if !ok {
		return nil, false
	}
	return e.tree, true
}

// IDs returns tree ids in insertion order.
func (r *Runner) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Runner) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// With runs fn while holding the tree's lock.
func (r *Runner) With(id string, fn func(tree *bt.BehaviorTree)) error {
	e, ok := r.entry(id)
	if !ok {
		return errors.Wrapf(ErrNotFound, "id %s", id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.tree)
	return nil
}

// Tick advances a single tree.
func (r *Runner) Tick(id string, dt time.Duration) (bt.Status, error) {
	e, ok := r.entry(id)
	if !ok {
		return bt.StatusInvalid, errors.Wrapf(ErrNotFound, "id %s", id)
	}
	return r.tick(e, dt), nil
}

// TickAll advances every tree once, in parallel up to the worker limit. Results
// follow insertion order. Trees added during the pass are picked up next frame.
func (r *Runner) TickAll(ctx context.Context, dt time.Duration) ([]Result, error) {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.order))
	for _, id := range r.order {
		entries = append(entries, r.entries[id])
	}
	r.mu.RUnlock()

	results, err := concurrent.Map(ctx, r.workers, entries, func(_ context.Context, e *entry) (Result, error) {
		return Result{ID: e.id, Name: e.name, Status: r.tick(e, dt)}, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "tick all")
	}
	return results, nil
}

func (r *Runner) tick(e *entry, dt time.Duration) bt.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	status := e.tree.Tick(dt)
	if r.observer != nil {
		r.observer.ObserveTick(e.name, status, time.Since(start))
	}
	return status
}

// completed runs inside Tick with the entry locked.
func (r *Runner) completed(e *entry, status bt.Status) {
	if r.bus == nil {
		return
	}
	evt := bus.NewEvent(EventCompleted, e.id, CompletionEvent{TreeID: e.id, Name: e.name, Status: status})
	if err := r.bus.Publish(evt); err != nil {
		r.logger.Warn("completion handler failed", log.String("tree", e.name), log.Error(err))
	}
}

func (r *Runner) entry(id string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}
