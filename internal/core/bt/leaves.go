package bt

import "time"

// ActionFunc performs the work of an Action leaf.
type ActionFunc func(bb *Blackboard, dt time.Duration) Status

// ConditionFunc evaluates a Condition leaf.
type ConditionFunc func(bb *Blackboard) bool

// Action delegates its tick to a callback. A missing callback fails.
type Action struct {
	baseNode
	fn ActionFunc
}

// NewAction creates a new action leaf
func NewAction(name string, fn ActionFunc) *Action {
	return &Action{baseNode: newBaseNode(name, "Action"), fn: fn}
}

func (a *Action) update(bb *Blackboard, dt time.Duration) Status {
	if a.fn == nil {
		return StatusFailure
	}
	return a.fn(bb, dt)
}

func (a *Action) Reset() { a.status = StatusInvalid }

func (a *Action) Abort() { a.abortSelf() }

func (a *Action) Clone() Node { return NewAction(a.name, a.fn) }

// Condition maps a predicate onto Success or Failure. It never reports Running.
type Condition struct {
	baseNode
	fn ConditionFunc
}

// NewCondition creates a new condition leaf
func NewCondition(name string, fn ConditionFunc) *Condition {
	return &Condition{baseNode: newBaseNode(name, "Condition"), fn: fn}
}

func (c *Condition) update(bb *Blackboard, _ time.Duration) Status {
	if c.fn == nil {
		return StatusFailure
	}
	if c.fn(bb) {
		return StatusSuccess
	}
	return StatusFailure
}

func (c *Condition) Reset() { c.status = StatusInvalid }

func (c *Condition) Abort() { c.abortSelf() }

func (c *Condition) Clone() Node { return NewCondition(c.name, c.fn) }

// Wait reports Running until the accumulated delta time reaches its duration,
// then succeeds once and starts over.
type Wait struct {
	baseNode
	duration time.Duration
	elapsed  time.Duration
}

// NewWait creates a new wait leaf
func NewWait(name string, duration time.Duration) *Wait {
	return &Wait{baseNode: newBaseNode(name, "Wait"), duration: duration}
}

func (w *Wait) update(_ *Blackboard, dt time.Duration) Status {
	w.elapsed += dt
	if w.elapsed >= w.duration {
		w.elapsed = 0
		return StatusSuccess
	}
	return StatusRunning
}

func (w *Wait) Duration() time.Duration { return w.duration }

func (w *Wait) Elapsed() time.Duration { return w.elapsed }

func (w *Wait) Reset() {
	w.status = StatusInvalid
	w.elapsed = 0
}

func (w *Wait) Abort() {
	if w.abortSelf() {
		w.elapsed = 0
	}
}

func (w *Wait) Clone() Node { return NewWait(w.name, w.duration) }

// CustomFuncs are the hooks of a Custom leaf. Only Tick is required.
type CustomFuncs struct {
	Tick ActionFunc
	// Reset runs whenever the leaf is reset.
	Reset func()
	// Abort runs when a running leaf is aborted, before its status is cleared.
	Abort func()
}

// Custom is a leaf for embedding applications whose work holds state or external
// resources that must be released on reset or abort.
type Custom struct {
	baseNode
	funcs CustomFuncs
}

// NewCustom creates a new custom leaf
func NewCustom(name string, funcs CustomFuncs) *Custom {
	return &Custom{baseNode: newBaseNode(name, "Custom"), funcs: funcs}
}

func (c *Custom) update(bb *Blackboard, dt time.Duration) Status {
	if c.funcs.Tick == nil {
		return StatusFailure
	}
	return c.funcs.Tick(bb, dt)
}

func (c *Custom) Reset() {
	c.status = StatusInvalid
	if c.funcs.Reset != nil {
		c.funcs.Reset()
	}
}

func (c *Custom) Abort() {
	if c.status != StatusRunning {
		return
	}
	if c.funcs.Abort != nil {
		c.funcs.Abort()
	}
	c.status = StatusInvalid
}

func (c *Custom) Clone() Node { return NewCustom(c.name, c.funcs) }
