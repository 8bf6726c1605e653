package bt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvert(t *testing.T) {
	bb := NewBlackboard()
	assert.Equal(t, StatusFailure, Tick(NewInvert("", script(StatusSuccess).node("")), bb, frame))
	assert.Equal(t, StatusSuccess, Tick(NewInvert("", script(StatusFailure).node("")), bb, frame))
	assert.Equal(t, StatusRunning, Tick(NewInvert("", script(StatusRunning).node("")), bb, frame))
	assert.Equal(t, StatusFailure, Tick(NewInvert("", nil), bb, frame))
}

func TestRepeatResetsChildEachIteration(t *testing.T) {
	resets := 0
	child := NewCustom("child", CustomFuncs{
		Tick:  func(*Blackboard, time.Duration) Status { return StatusSuccess },
		Reset: func() { resets++ },
	})
	rep := NewRepeat("rep", 3, child)
	bb := NewBlackboard()

	assert.Equal(t, StatusRunning, Tick(rep, bb, frame))
	assert.Equal(t, 1, rep.Iteration())
	assert.Equal(t, StatusRunning, Tick(rep, bb, frame))
	assert.Equal(t, StatusSuccess, Tick(rep, bb, frame))

	assert.Equal(t, 3, resets)
	assert.Equal(t, 0, rep.Iteration())
}

func TestRepeatReturnsFinalChildStatus(t *testing.T) {
	rep := NewRepeat("rep", 2, script(StatusFailure).node(""))
	bb := NewBlackboard()

	assert.Equal(t, StatusRunning, Tick(rep, bb, frame))
	assert.Equal(t, StatusFailure, Tick(rep, bb, frame))
}

func TestRepeatRunningChildDoesNotCount(t *testing.T) {
	rep := NewRepeat("rep", 2, script(StatusRunning, StatusRunning, StatusSuccess).node(""))
	bb := NewBlackboard()

	Tick(rep, bb, frame)
	Tick(rep, bb, frame)
	assert.Equal(t, 0, rep.Iteration())
	Tick(rep, bb, frame)
	assert.Equal(t, 1, rep.Iteration())
}

func TestRepeatForever(t *testing.T) {
	rep := NewRepeat("forever", 0, script(StatusSuccess).node(""))
	bb := NewBlackboard()
	for i := 0; i < 100; i++ {
		require.Equal(t, StatusRunning, Tick(rep, bb, frame))
	}
	assert.Equal(t, 100, rep.Iteration())

	assert.Equal(t, 0, NewRepeat("neg", -5, nil).Count())
}

func TestRepeatResetZeroesCounter(t *testing.T) {
	rep := NewRepeat("rep", 3, script(StatusSuccess).node(""))
	Tick(rep, NewBlackboard(), frame)
	require.Equal(t, 1, rep.Iteration())

	rep.Reset()
	assert.Equal(t, 0, rep.Iteration())
	assert.Equal(t, StatusInvalid, rep.Status())
}

func TestRepeatAbort(t *testing.T) {
	wait := NewWait("wait", time.Second)
	rep := NewRepeat("rep", 3, wait)
	bb := NewBlackboard()

	Tick(rep, bb, time.Second)
	Tick(rep, bb, frame)
	require.Equal(t, 1, rep.Iteration())
	require.Equal(t, StatusRunning, rep.Status())

	rep.Abort()
	assert.Equal(t, 0, rep.Iteration())
	assert.Equal(t, StatusInvalid, wait.Status())
	assert.Equal(t, time.Duration(0), wait.Elapsed())
}

func TestForceSucceed(t *testing.T) {
	bb := NewBlackboard()
	assert.Equal(t, StatusSuccess, Tick(NewForceSucceed("", script(StatusFailure).node("")), bb, frame))
	assert.Equal(t, StatusSuccess, Tick(NewForceSucceed("", script(StatusSuccess).node("")), bb, frame))
	assert.Equal(t, StatusRunning, Tick(NewForceSucceed("", script(StatusRunning).node("")), bb, frame))
	assert.Equal(t, StatusSuccess, Tick(NewForceSucceed("", nil), bb, frame))
}

func TestForceFail(t *testing.T) {
	bb := NewBlackboard()
	assert.Equal(t, StatusFailure, Tick(NewForceFail("", script(StatusFailure).node("")), bb, frame))
	assert.Equal(t, StatusFailure, Tick(NewForceFail("", script(StatusSuccess).node("")), bb, frame))
	assert.Equal(t, StatusRunning, Tick(NewForceFail("", script(StatusRunning).node("")), bb, frame))
	assert.Equal(t, StatusFailure, Tick(NewForceFail("", nil), bb, frame))
}

func TestDecoratorSetChild(t *testing.T) {
	inv := NewInvert("inv", nil)
	assert.Nil(t, inv.Child())
	assert.Empty(t, inv.Children())

	child := NewCondition("yes", func(*Blackboard) bool { return true })
	inv.SetChild(child)
	assert.Same(t, child, inv.Child())
	assert.Equal(t, StatusFailure, Tick(inv, NewBlackboard(), frame))
}

func TestDecoratorAbort(t *testing.T) {
	wait := NewWait("wait", time.Second)
	inv := NewInvert("inv", wait)

	require.Equal(t, StatusRunning, Tick(inv, NewBlackboard(), frame))
	inv.Abort()
	assert.Equal(t, StatusInvalid, inv.Status())
	assert.Equal(t, StatusInvalid, wait.Status())
	assert.Equal(t, time.Duration(0), wait.Elapsed())
}

func TestDecoratorClone(t *testing.T) {
	rep := NewRepeat("rep", 4, NewWait("w", time.Second))
	Tick(rep, NewBlackboard(), time.Second)

	clone := rep.Clone().(*Repeat)
	assert.Equal(t, 4, clone.Count())
	assert.Equal(t, 0, clone.Iteration())
	assert.NotSame(t, rep.Child(), clone.Child())

	assert.Nil(t, NewForceFail("ff", nil).Clone().(*ForceFail).Child())
}
