package bt

import "time"

// Decorator nodes: Invert, Repeat, ForceSucceed, ForceFail

// decorator holds the single child slot shared by all decorators.
type decorator struct {
	baseNode
	child Node
}

func newDecorator(name, kind string, child Node) decorator {
	return decorator{baseNode: newBaseNode(name, kind), child: child}
}

// SetChild sets the child node, replacing any previous one.
func (d *decorator) SetChild(child Node) { d.child = child }

// Child returns the child node or nil.
func (d *decorator) Child() Node { return d.child }

func (d *decorator) Children() []Node {
	if d.child == nil {
		return nil
	}
	return []Node{d.child}
}

func (d *decorator) Reset() {
	d.status = StatusInvalid
	if d.child != nil {
		d.child.Reset()
	}
}

func (d *decorator) Abort() {
	if d.child != nil {
		d.child.Abort()
	}
	d.abortSelf()
}

func (d *decorator) cloneChild() Node {
	if d.child == nil {
		return nil
	}
	return d.child.Clone()
}

// Invert swaps Success and Failure; Running passes through.
type Invert struct {
	decorator
}

// NewInvert creates a new inverter. child may be nil and set later.
func NewInvert(name string, child Node) *Invert {
	return &Invert{decorator: newDecorator(name, "Invert", child)}
}

func (i *Invert) update(bb *Blackboard, dt time.Duration) Status {
	if i.child == nil {
		return StatusFailure
	}
	switch Tick(i.child, bb, dt) {
	case StatusSuccess:
		return StatusFailure
	case StatusFailure:
		return StatusSuccess
	default:
		return StatusRunning
	}
}

func (i *Invert) Clone() Node { return NewInvert(i.name, i.cloneChild()) }

// Repeat reruns its child count times, reporting Running between iterations.
// A count of zero repeats forever.
type Repeat struct {
	decorator
	count     int
	iteration int
}

// NewRepeat creates a new repeater
func NewRepeat(name string, count int, child Node) *Repeat {
	if count < 0 {
		count = 0
	}
	return &Repeat{decorator: newDecorator(name, "Repeat", child), count: count}
}

func (r *Repeat) update(bb *Blackboard, dt time.Duration) Status {
	if r.child == nil {
		return StatusFailure
	}

	status := Tick(r.child, bb, dt)
	if status == StatusRunning {
		return StatusRunning
	}

	r.iteration++
	r.child.Reset()
	if r.count == 0 || r.iteration < r.count {
		return StatusRunning
	}

	r.iteration = 0
	return status
}

// Count returns the configured number of iterations, 0 meaning infinite.
func (r *Repeat) Count() int { return r.count }

// Iteration returns how many iterations of the current run have completed.
func (r *Repeat) Iteration() int { return r.iteration }

func (r *Repeat) Reset() {
	r.decorator.Reset()
	r.iteration = 0
}

func (r *Repeat) Abort() {
	running := r.status == StatusRunning
	r.decorator.Abort()
	if running {
		r.iteration = 0
	}
}

func (r *Repeat) Clone() Node { return NewRepeat(r.name, r.count, r.cloneChild()) }

// ForceSucceed reports Success for any terminal child result.
type ForceSucceed struct {
	decorator
}

// NewForceSucceed creates a new succeeder
func NewForceSucceed(name string, child Node) *ForceSucceed {
	return &ForceSucceed{decorator: newDecorator(name, "ForceSucceed", child)}
}

func (f *ForceSucceed) update(bb *Blackboard, dt time.Duration) Status {
	if f.child == nil {
		return StatusSuccess
	}
	if Tick(f.child, bb, dt) == StatusRunning {
		return StatusRunning
	}
	return StatusSuccess
}

func (f *ForceSucceed) Clone() Node { return NewForceSucceed(f.name, f.cloneChild()) }

// ForceFail reports Failure for any terminal child result.
type ForceFail struct {
	decorator
}

// NewForceFail creates a new failer
func NewForceFail(name string, child Node) *ForceFail {
	return &ForceFail{decorator: newDecorator(name, "ForceFail", child)}
}

func (f *ForceFail) update(bb *Blackboard, dt time.Duration) Status {
	if f.child == nil {
		return StatusFailure
	}
	if Tick(f.child, bb, dt) == StatusRunning {
		return StatusRunning
	}
	return StatusFailure
}

func (f *ForceFail) Clone() Node { return NewForceFail(f.name, f.cloneChild()) }
