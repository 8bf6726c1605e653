package bt

import (
	"slices"
	"time"

	"github.com/zeusync/behave/internal/core/observability/log"
)

// CompletionFunc receives the final status when a tree stops running.
type CompletionFunc func(status Status)

type completionObserver struct {
	id uint64
	fn CompletionFunc
}

// Option configures a BehaviorTree.
type Option func(*BehaviorTree)

// WithName names the tree; the name is used in logs and by observers.
func WithName(name string) Option {
	return func(t *BehaviorTree) { t.name = name }
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l log.Log) Option {
	return func(t *BehaviorTree) {
		if l != nil {
			t.logger = l
		}
	}
}

// BehaviorTree owns a root node and the blackboard it runs against. It is the
// single entry point an external driver calls once per frame.
//
// A tree is not safe for concurrent use.
type BehaviorTree struct {
	name       string
	root       Node
	blackboard *Blackboard
	status     Status

	observers []completionObserver
	nextID    uint64

	logger log.Log
}

// New creates a tree with a fresh blackboard. root may be nil.
func New(root Node, opts ...Option) *BehaviorTree {
	t := &BehaviorTree{
		root:       root,
		blackboard: NewBlackboard(),
		status:     StatusInvalid,
		logger:     log.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With(log.String("tree", t.name))
	return t
}

func (t *BehaviorTree) Name() string { return t.name }

func (t *BehaviorTree) Root() Node { return t.root }

func (t *BehaviorTree) Blackboard() *Blackboard { return t.blackboard }

func (t *BehaviorTree) Status() Status { return t.status }

// SetRoot replaces the root and sets the tree status to Invalid. The previous root
// is discarded as is, without Abort; call Abort first to stop its in-flight work.
func (t *BehaviorTree) SetRoot(root Node) {
	if t.root != nil && t.root.Status() == StatusRunning {
		t.logger.Debug("replacing running root without abort", log.String("root", t.root.Name()))
	}
	t.root = root
	t.status = StatusInvalid
}

// Tick evaluates the tree once. Without a root it fails and changes nothing.
func (t *BehaviorTree) Tick(dt time.Duration) Status {
	if t.root == nil {
		return StatusFailure
	}

	prev := t.status
	status := Tick(t.root, t.blackboard, dt)
	t.status = status

	if prev == StatusRunning && status != StatusRunning {
		t.logger.Debug("tree completed", log.Stringer("status", status))
		t.notify(status)
	}
	return status
}

// Reset resets the root and returns the tree to Invalid.
func (t *BehaviorTree) Reset() {
	if t.root != nil {
		t.root.Reset()
	}
	t.status = StatusInvalid
}

// Abort stops a running root. It is a no-op when the root is not running.
func (t *BehaviorTree) Abort() {
	if t.root == nil || t.root.Status() != StatusRunning {
		return
	}
	t.root.Abort()
	t.status = StatusInvalid
	t.logger.Debug("tree aborted")
}

// OnComplete registers fn to be called once per Running to non-Running transition.
// The returned function unregisters it.
func (t *BehaviorTree) OnComplete(fn CompletionFunc) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	t.nextID++
	id := t.nextID
	t.observers = append(t.observers, completionObserver{id: id, fn: fn})
	return func() {
		t.observers = slices.DeleteFunc(t.observers, func(o completionObserver) bool {
			return o.id == id
		})
	}
}

func (t *BehaviorTree) notify(status Status) {
	// Observers may unsubscribe from inside the callback.
	for _, o := range slices.Clone(t.observers) {
		o.fn(status)
	}
}

// Close releases everything the tree owns: blackboard values are released, the
// root and all observers are dropped. The tree fails every later Tick.
func (t *BehaviorTree) Close() {
	t.blackboard.Clear()
	t.root = nil
	t.observers = nil
	t.status = StatusInvalid
}
