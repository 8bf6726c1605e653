package injector

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/behave/internal/config"
	"github.com/zeusync/behave/internal/core/bt"
)

var testdata = filepath.Join("..", "core", "bt", "loader", "testdata")

func testConfig(trees ...config.TreeConfig) *config.Config {
	cfg := config.Default()
	cfg.Log.Level = "silent"
	cfg.Metrics.Runtime = false
	cfg.Trees = trees
	return cfg
}

func TestInitEngine(t *testing.T) {
	e, cleanup, err := InitEngine(testConfig())
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, e.Logger)
	assert.NotNil(t, e.Bus)
	assert.NotNil(t, e.Metrics)
	assert.NotNil(t, e.Runner)
	assert.NotNil(t, e.Inspector)
	assert.Contains(t, e.Registry.Actions(), "AddInt")
	assert.Contains(t, e.Registry.Conditions(), "IsTrue")
}

func TestInitEngineErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Log.Level = "loud"
	_, _, err := InitEngine(cfg)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Metrics.Namespace = ""
	_, _, err = InitEngine(cfg)
	assert.Error(t, err)
}

func TestLoadTreesAndFrame(t *testing.T) {
	e, cleanup, err := InitEngine(testConfig(
		config.TreeConfig{Path: filepath.Join(testdata, "guard.yaml"), Count: 2},
		config.TreeConfig{Path: filepath.Join(testdata, "guard.json")},
	))
	require.NoError(t, err)
	defer cleanup()

	ids, err := e.LoadTrees()
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(e.Metrics.Trees))

	results, err := e.Runner.TickAll(context.Background(), 600*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, results, 3)

	f := e.Frame(1)
	assert.Equal(t, uint64(1), f.Seq)
	require.Len(t, f.Trees, 3)
	var names []string
	for i, s := range f.Trees {
		assert.Equal(t, ids[i], s.ID)
		assert.NotEqual(t, bt.StatusInvalid.String(), s.Status)
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"guard-0", "guard-1", "guard"}, names)
	assert.Equal(t, f.Trees[0].Shape, f.Trees[1].Shape)

	// Copies of one definition do not share a blackboard.
	tree0, _ := e.Runner.Get(ids[0])
	tree1, _ := e.Runner.Get(ids[1])
	assert.NotSame(t, tree0.Blackboard(), tree1.Blackboard())
}

func TestLoadTreesMissingFile(t *testing.T) {
	e, cleanup, err := InitEngine(testConfig(
		config.TreeConfig{Path: filepath.Join(t.TempDir(), "nope.yaml")},
	))
	require.NoError(t, err)
	defer cleanup()

	ids, err := e.LoadTrees()
	assert.Error(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, 0, e.Runner.Len())
}
