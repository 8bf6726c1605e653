package loader

import (
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/behave/internal/core/bt"
)

func builtins() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r, nil)
	return r
}

func TestLoadYAMLGuard(t *testing.T) {
	def, err := LoadFile("testdata/guard.yaml")
	require.NoError(t, err)
	assert.Equal(t, "guard", def.Name)

	tree, err := def.BuildTree(builtins())
	require.NoError(t, err)
	assert.Equal(t, "guard", tree.Name())

	bb := tree.Blackboard()
	assert.False(t, bb.GetBool("alert", true))
	assert.Equal(t, 2, bb.GetInt("ammo", 0))
	assert.Equal(t, 1.5, bb.GetFloat("speed", 0))
	assert.Equal(t, "gate", bb.GetString("post", ""))

	// Not alerted: patrol waits then counts a lap.
	assert.Equal(t, bt.StatusSuccess, tree.Tick(500*time.Millisecond))
	assert.Equal(t, 1, bb.GetInt("laps", 0))

	bb.SetBool("alert", true)
	assert.Equal(t, bt.StatusSuccess, tree.Tick(time.Millisecond))
	assert.Equal(t, bt.StatusSuccess, tree.Tick(time.Millisecond))
	assert.Equal(t, 0, bb.GetInt("ammo", -1))

	// Out of ammo: falls back to patrol.
	assert.Equal(t, bt.StatusRunning, tree.Tick(100*time.Millisecond))
	assert.Equal(t, 1, bb.GetInt("laps", 0))
}

func TestLoadJSONGuard(t *testing.T) {
	def, err := LoadFile("testdata/guard.json")
	require.NoError(t, err)

	tree, err := def.BuildTree(builtins(), bt.WithName("override"))
	require.NoError(t, err)
	assert.Equal(t, "override", tree.Name())

	bb := tree.Blackboard()
	kind, _ := bb.KindOf("ammo")
	assert.Equal(t, bt.KindInt, kind, "json integers stay integers")
	assert.Equal(t, 1.5, bb.GetFloat("speed", 0))

	par, ok := tree.Root().(*bt.Parallel)
	require.True(t, ok)
	assert.Equal(t, bt.RequireAll, par.Policy())

	assert.Equal(t, bt.StatusRunning, tree.Tick(time.Millisecond))
	assert.Equal(t, bt.StatusSuccess, tree.Tick(time.Millisecond))
	assert.Equal(t, 2, bb.GetInt("shots", 0))
}

func TestBuildRootIsFresh(t *testing.T) {
	def, err := LoadFile("testdata/guard.yaml")
	require.NoError(t, err)
	reg := builtins()

	a, err := def.BuildRoot(reg)
	require.NoError(t, err)
	b, err := def.BuildRoot(reg)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"no root", "name: x", ErrNoRoot},
		{"unknown type", "root: {type: Teleport}", ErrUnknownType},
		{"unknown call", "root: {type: Action, call: Dance}", ErrUnknownCall},
		{"missing param", "root: {type: Action, call: SetInt}", ErrMissingParam},
		{"decorator without child", "root: {type: Invert}", ErrInvalidNode},
		{"decorator with two children", `
root:
  type: Repeat
  children: [{type: Action, call: Noop}, {type: Action, call: Noop}]`, ErrInvalidNode},
		{"leaf with children", `
root:
  type: Wait
  duration: 1s
  children: [{type: Action, call: Noop}]`, ErrInvalidNode},
		{"composite with child", "root: {type: Sequence, child: {type: Action, call: Noop}}", ErrInvalidNode},
		{"bad duration", "root: {type: Wait, duration: soon}", ErrInvalidNode},
		{"missing duration", "root: {type: Wait}", ErrMissingParam},
		{"negative duration", "root: {type: Wait, duration: -1s}", ErrInvalidNode},
		{"bad policy", "root: {type: Parallel, policy: most}", ErrInvalidNode},
		{"negative count", "root: {type: Repeat, count: -2, child: {type: Action, call: Noop}}", ErrInvalidNode},
		{"nested error", `
root:
  type: Selector
  children:
    - type: Sequence
      children: [{type: Condition, call: Nope}]`, ErrUnknownCall},
	}
	reg := builtins()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := LoadYAML(strings.NewReader(tt.yaml))
			require.NoError(t, err)
			_, err = def.BuildTree(reg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestNestedErrorNamesPath(t *testing.T) {
	def, err := LoadYAML(strings.NewReader(`
root:
  type: Selector
  children:
    - type: Action
      call: Noop
    - type: Sequence
      children: [{type: Wait, duration: nope}]`))
	require.NoError(t, err)

	_, err = def.BuildRoot(builtins())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root.children[1].children[0]")
}

func TestNodeTypesAreCaseInsensitive(t *testing.T) {
	def, err := LoadYAML(strings.NewReader(`
root:
  type: forcefail
  child: {type: ACTION, call: Noop, name: ok}`))
	require.NoError(t, err)

	root, err := def.BuildRoot(builtins())
	require.NoError(t, err)
	assert.Equal(t, "ForceFail", root.Kind())
	assert.Equal(t, "ok", root.Children()[0].Name())
	assert.Equal(t, bt.StatusFailure, bt.Tick(root, bt.NewBlackboard(), 0))
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile("testdata/guard.toml")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = LoadFile("testdata/missing.yaml")
	assert.Error(t, err)

	_, err = LoadJSON(strings.NewReader("{"))
	assert.Error(t, err)
}
