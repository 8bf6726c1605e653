package bt

import (
	"slices"
	"time"
)

// Composite nodes: Sequence, Selector, Parallel

// composite holds the ordered children shared by all composites.
type composite struct {
	baseNode
	children []Node
}

// newComposite copies children, dropping nil entries as AddChild does.
func newComposite(name, kind string, children []Node) composite {
	c := composite{baseNode: newBaseNode(name, kind), children: make([]Node, 0, len(children))}
	for _, child := range children {
		c.AddChild(child)
	}
	return c
}

// AddChild appends a child node
func (c *composite) AddChild(child Node) {
	if child == nil {
		return
	}
	c.children = append(c.children, child)
}

// Children returns a copy of the child list
func (c *composite) Children() []Node {
	return slices.Clone(c.children)
}

// ChildCount returns the number of children
func (c *composite) ChildCount() int { return len(c.children) }

// removeChild drops child and returns its former index, or -1. A running child is
// aborted since it will not be visited again.
func (c *composite) removeChild(child Node) int {
	for i, ch := range c.children {
		if ch == child {
			if ch.Status() == StatusRunning {
				ch.Abort()
			}
			c.children = slices.Delete(c.children, i, i+1)
			return i
		}
	}
	return -1
}

func (c *composite) resetChildren() {
	for _, child := range c.children {
		child.Reset()
	}
}

func (c *composite) abortChildren() {
	for _, child := range c.children {
		child.Abort()
	}
}

func (c *composite) cloneChildren() []Node {
	clones := make([]Node, 0, len(c.children))
	for _, child := range c.children {
		clones = append(clones, child.Clone())
	}
	return clones
}

// cursor remembers which child is mid-execution across Running results.
type cursor struct {
	composite
	current int
}

// Cursor returns the index of the child the next tick resumes at.
func (c *cursor) Cursor() int { return c.current }

// RemoveChild removes a child node, keeping the cursor on the same logical child.
func (c *cursor) RemoveChild(child Node) bool {
	i := c.removeChild(child)
	if i < 0 {
		return false
	}
	if i < c.current {
		c.current--
	}
	if c.current > len(c.children) {
		c.current = len(c.children)
	}
	return true
}

// rewind ends the current run: later siblings that are still running are aborted
// and the cursor returns to the first child.
func (c *cursor) rewind() {
	if next := c.current + 1; next < len(c.children) {
		abortRunning(c.children[next:])
	}
	c.current = 0
}

func (c *cursor) Reset() {
	c.status = StatusInvalid
	c.current = 0
	c.resetChildren()
}

func (c *cursor) Abort() {
	c.abortChildren()
	if c.abortSelf() {
		c.current = 0
	}
}

// Sequence runs children left to right until one fails.
type Sequence struct {
	cursor
}

// NewSequence creates a new sequence node
func NewSequence(name string, children ...Node) *Sequence {
	return &Sequence{cursor: cursor{composite: newComposite(name, "Sequence", children)}}
}

func (s *Sequence) update(bb *Blackboard, dt time.Duration) Status {
	for s.current < len(s.children) {
		switch Tick(s.children[s.current], bb, dt) {
		case StatusRunning:
			return StatusRunning
		case StatusFailure:
			s.rewind()
			return StatusFailure
		default:
			s.current++
		}
	}

	// All children succeeded, or there were none.
	s.rewind()
	return StatusSuccess
}

func (s *Sequence) Clone() Node { return NewSequence(s.name, s.cloneChildren()...) }

// Selector runs children left to right until one succeeds.
type Selector struct {
	cursor
}

// NewSelector creates a new selector node
func NewSelector(name string, children ...Node) *Selector {
	return &Selector{cursor: cursor{composite: newComposite(name, "Selector", children)}}
}

func (s *Selector) update(bb *Blackboard, dt time.Duration) Status {
	if len(s.children) == 0 {
		// Nothing to refuse.
		return StatusSuccess
	}

	for s.current < len(s.children) {
		switch Tick(s.children[s.current], bb, dt) {
		case StatusRunning:
			return StatusRunning
		case StatusSuccess:
			s.rewind()
			return StatusSuccess
		default:
			s.current++
		}
	}

	// All children failed
	s.rewind()
	return StatusFailure
}

func (s *Selector) Clone() Node { return NewSelector(s.name, s.cloneChildren()...) }

// Policy selects how Parallel combines its children's results.
type Policy uint8

const (
	// RequireOne succeeds when any child succeeds and fails when all children fail.
	RequireOne Policy = iota
	// RequireAll fails when any child fails and succeeds when all children succeed.
	RequireAll
)

func (p Policy) String() string {
	switch p {
	case RequireOne:
		return "RequireOne"
	case RequireAll:
		return "RequireAll"
	default:
		return "Unknown"
	}
}

// Parallel ticks every child on every tick, then combines the results.
// Children keep running even when the outcome is already decided for this tick.
type Parallel struct {
	composite
	policy Policy
}

// NewParallel creates a new parallel node
func NewParallel(name string, policy Policy, children ...Node) *Parallel {
	return &Parallel{composite: newComposite(name, "Parallel", children), policy: policy}
}

func (p *Parallel) update(bb *Blackboard, dt time.Duration) Status {
	total := len(p.children)
	if total == 0 {
		return StatusSuccess
	}

	successCount, failureCount := 0, 0
	for _, child := range p.children {
		switch Tick(child, bb, dt) {
		case StatusSuccess:
			successCount++
		case StatusFailure:
			failureCount++
		}
	}

	switch p.policy {
	case RequireOne:
		if successCount > 0 {
			return StatusSuccess
		}
		if failureCount == total {
			return StatusFailure
		}
	case RequireAll:
		if failureCount > 0 {
			return StatusFailure
		}
		if successCount == total {
			return StatusSuccess
		}
	default:
		return StatusFailure
	}
	return StatusRunning
}

// Policy returns the combination policy
func (p *Parallel) Policy() Policy { return p.policy }

// RemoveChild removes a child node
func (p *Parallel) RemoveChild(child Node) bool {
	return p.removeChild(child) >= 0
}

func (p *Parallel) Reset() {
	p.status = StatusInvalid
	p.resetChildren()
}

func (p *Parallel) Abort() {
	p.abortChildren()
	p.abortSelf()
}

func (p *Parallel) Clone() Node { return NewParallel(p.name, p.policy, p.cloneChildren()...) }
