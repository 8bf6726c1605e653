package loader

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/behave/internal/core/bt"
	"github.com/zeusync/behave/internal/core/observability/log"
)

func TestRegistryNames(t *testing.T) {
	r := builtins()
	assert.Equal(t, []string{"AddInt", "Fail", "Log", "Noop", "Remove", "SetBool", "SetFloat", "SetInt", "SetString"}, r.Actions())
	assert.Equal(t, []string{"HasKey", "IntAtLeast", "IsTrue", "StringEquals"}, r.Conditions())
}

func TestRegistryCustomFactory(t *testing.T) {
	r := NewRegistry()
	r.RegisterAction("Flee", func(p Params) (bt.ActionFunc, error) {
		speed, _ := p.Float("speed")
		return func(bb *bt.Blackboard, dt time.Duration) bt.Status {
			bb.SetFloat("distance", bb.GetFloat("distance", 0)+speed*dt.Seconds())
			return bt.StatusRunning
		}, nil
	})

	fn, err := r.NewAction("Flee", Params{"speed": 4})
	require.NoError(t, err)
	bb := bt.NewBlackboard()
	assert.Equal(t, bt.StatusRunning, fn(bb, 500*time.Millisecond))
	assert.Equal(t, 2.0, bb.GetFloat("distance", 0))

	_, err = r.NewCondition("Flee", nil)
	assert.True(t, errors.Is(err, ErrUnknownCall))
}

func runAction(t *testing.T, r *Registry, name string, p Params, bb *bt.Blackboard) bt.Status {
	t.Helper()
	fn, err := r.NewAction(name, p)
	require.NoError(t, err)
	return fn(bb, 0)
}

func check(t *testing.T, r *Registry, name string, p Params, bb *bt.Blackboard) bool {
	t.Helper()
	fn, err := r.NewCondition(name, p)
	require.NoError(t, err)
	return fn(bb)
}

func TestBuiltinActions(t *testing.T) {
	r := builtins()
	bb := bt.NewBlackboard()

	assert.Equal(t, bt.StatusSuccess, runAction(t, r, "Noop", nil, bb))
	assert.Equal(t, bt.StatusFailure, runAction(t, r, "Fail", nil, bb))

	runAction(t, r, "SetBool", Params{"key": "b", "value": true}, bb)
	runAction(t, r, "SetInt", Params{"key": "i", "value": 7}, bb)
	runAction(t, r, "SetFloat", Params{"key": "f", "value": 2}, bb)
	runAction(t, r, "SetString", Params{"key": "s", "value": "x"}, bb)
	assert.True(t, bb.GetBool("b", false))
	assert.Equal(t, 7, bb.GetInt("i", 0))
	assert.Equal(t, 2.0, bb.GetFloat("f", 0))
	assert.Equal(t, "x", bb.GetString("s", ""))

	runAction(t, r, "AddInt", Params{"key": "i", "delta": json.Number("-3")}, bb)
	runAction(t, r, "AddInt", Params{"key": "n"}, bb)
	assert.Equal(t, 4, bb.GetInt("i", 0))
	assert.Equal(t, 1, bb.GetInt("n", 0))

	runAction(t, r, "Remove", Params{"key": "s"}, bb)
	assert.False(t, bb.Has("s"))
}

func TestBuiltinConditions(t *testing.T) {
	r := builtins()
	bb := bt.NewBlackboard()
	bb.SetBool("alert", true)
	bb.SetInt("hp", 30)
	bb.SetFloat("speed", 30)
	bb.SetString("mode", "hunt")

	assert.True(t, check(t, r, "IsTrue", Params{"key": "alert"}, bb))
	assert.False(t, check(t, r, "IsTrue", Params{"key": "hp"}, bb))
	assert.True(t, check(t, r, "HasKey", Params{"key": "mode"}, bb))
	assert.False(t, check(t, r, "HasKey", Params{"key": "none"}, bb))
	assert.True(t, check(t, r, "IntAtLeast", Params{"key": "hp", "value": 30}, bb))
	assert.False(t, check(t, r, "IntAtLeast", Params{"key": "hp", "value": 31}, bb))
	assert.False(t, check(t, r, "IntAtLeast", Params{"key": "speed", "value": 0}, bb), "floats are not ints")
	assert.True(t, check(t, r, "StringEquals", Params{"key": "mode", "value": "hunt"}, bb))
	assert.False(t, check(t, r, "StringEquals", Params{"key": "missing", "value": ""}, bb))

	_, err := r.NewCondition("IntAtLeast", Params{"key": "hp"})
	assert.True(t, errors.Is(err, ErrMissingParam))
}

func TestBuiltinLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := NewRegistry()
	RegisterBuiltins(r, log.FromZap(zap.New(core), log.LevelInfo))

	bb := bt.NewBlackboard()
	bb.SetInt("ammo", 3)
	runAction(t, r, "Log", Params{"msg": "reloading", "key": "ammo"}, bb)
	runAction(t, r, "Log", Params{"msg": "idle"}, bb)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "reloading", entries[0].Message)
	assert.Equal(t, "int", entries[0].ContextMap()["kind"])
	assert.Equal(t, "idle", entries[1].Message)

	_, err := r.NewAction("Log", nil)
	assert.True(t, errors.Is(err, ErrMissingParam))
}

func TestParams(t *testing.T) {
	p := Params{
		"int":   3,
		"float": 2.5,
		"whole": 4.0,
		"num":   json.Number("12"),
		"dur":   "1.5s",
		"ms":    250,
		"flag":  true,
	}

	i, ok := p.Int("whole")
	assert.True(t, ok)
	assert.Equal(t, 4, i)
	_, ok = p.Int("float")
	assert.False(t, ok)
	i, _ = p.Int("num")
	assert.Equal(t, 12, i)

	f, ok := p.Float("int")
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)

	d, ok := p.Duration("dur")
	assert.True(t, ok)
	assert.Equal(t, 1500*time.Millisecond, d)
	d, _ = p.Duration("ms")
	assert.Equal(t, 250*time.Millisecond, d)

	b, ok := p.Bool("flag")
	assert.True(t, ok && b)
	_, ok = p.String("flag")
	assert.False(t, ok)
}

func TestNilRegistryKnowsNoCalls(t *testing.T) {
	var reg *Registry
	_, err := reg.NewAction("Noop", nil)
	assert.True(t, errors.Is(err, ErrUnknownCall))
	_, err = reg.NewCondition("IsTrue", nil)
	assert.True(t, errors.Is(err, ErrUnknownCall))

	def, err := LoadYAML(strings.NewReader("root: {type: Sequence, children: [{type: Action, call: Noop}]}"))
	require.NoError(t, err)
	_, err = def.BuildRoot(nil)
	assert.True(t, errors.Is(err, ErrUnknownCall))

	def, err = LoadYAML(strings.NewReader("root: {type: Wait, duration: 1s}"))
	require.NoError(t, err)
	_, err = def.BuildRoot(nil)
	assert.NoError(t, err, "trees without calls need no registry")
}
