package bt

import "time"

// Node is a single unit of a behavior tree.
//
// The set of node kinds is closed: every variant lives in this package. Embedding
// applications plug their own behavior in through Action, Condition or Custom leaves.
type Node interface {
	// Name returns the node name; it may be empty.
	Name() string

	// Kind returns the variant name, e.g. "Sequence" or "Wait".
	Kind() string

	// Status returns the result of the last Tick, or StatusInvalid after Reset/Abort.
	Status() Status

	// Children returns the direct children in tick order. Leaves return nil.
	Children() []Node

	// Reset returns the node and its subtree to the pre-execution state.
	Reset()

	// Abort discards in-flight work of a running subtree.
	Abort()

	// Clone creates a copy of the subtree with fresh progress. Callbacks are shared.
	Clone() Node

	update(bb *Blackboard, dt time.Duration) Status
	setStatus(s Status)
}

// Tick evaluates n once and records the result as its status. Every call site inside
// the engine goes through Tick so node variants only compute their result.
func Tick(n Node, bb *Blackboard, dt time.Duration) Status {
	if n == nil {
		return StatusFailure
	}
	st := n.update(bb, dt)
	if st == StatusInvalid {
		st = StatusFailure
	}
	n.setStatus(st)
	return st
}

// baseNode implements name, kind and status storage for all variants.
type baseNode struct {
	name   string
	kind   string
	status Status
}

func newBaseNode(name, kind string) baseNode {
	return baseNode{name: name, kind: kind}
}

func (b *baseNode) Name() string { return b.name }

func (b *baseNode) Kind() string { return b.kind }

func (b *baseNode) Status() Status { return b.status }

func (b *baseNode) Children() []Node { return nil }

func (b *baseNode) setStatus(s Status) { b.status = s }

// abortSelf moves a running node back to Invalid and reports whether it was running.
func (b *baseNode) abortSelf() bool {
	if b.status != StatusRunning {
		return false
	}
	b.status = StatusInvalid
	return true
}

// abortRunning aborts the nodes in list that still report Running.
func abortRunning(list []Node) {
	for _, n := range list {
		if n != nil && n.Status() == StatusRunning {
			n.Abort()
		}
	}
}

// Walk visits n and its subtree depth-first, parents before children.
// Returning false from fn skips the children of the visited node.
func Walk(n Node, fn func(n Node, depth int) bool) {
	walk(n, 0, fn)
}

func walk(n Node, depth int, fn func(Node, int) bool) {
	if n == nil {
		return
	}
	if !fn(n, depth) {
		return
	}
	for _, ch := range n.Children() {
		walk(ch, depth+1, fn)
	}
}
