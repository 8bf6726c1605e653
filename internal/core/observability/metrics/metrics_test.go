package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/behave/internal/core/bt"
	"github.com/zeusync/behave/internal/core/events/bus"
	"github.com/zeusync/behave/internal/core/runner"
)

func TestNewRequiresNamespace(t *testing.T) {
	_, err := New("", false)
	assert.Error(t, err)
}

func TestRunnerFeedsCollector(t *testing.T) {
	c, err := New("behave", false)
	require.NoError(t, err)
	b := bus.New()
	require.NoError(t, c.Subscribe(b))
	defer c.Close()

	r := runner.New(runner.WithBus(b), runner.WithObserver(c))
	id := r.Spawn("guard", bt.NewWait("wait", time.Second))
	r.Spawn("idle", bt.NewCondition("no", nil))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Trees))

	_, _ = r.Tick(id, 600*time.Millisecond)
	_, _ = r.Tick(id, 600*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Ticks.WithLabelValues("guard", "Running")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Ticks.WithLabelValues("guard", "Success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Completions.WithLabelValues("guard", "Success")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.TickDuration))

	r.Remove(id)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Trees))
}

func TestSubscribeRejectsForeignPayload(t *testing.T) {
	c, err := New("behave", false)
	require.NoError(t, err)
	b := bus.New()
	require.NoError(t, c.Subscribe(b))

	err = b.Publish(bus.NewEvent(runner.EventCompleted, "test", "oops"))
	assert.Error(t, err)

	c.Close()
	assert.NoError(t, b.Publish(bus.NewEvent(runner.EventCompleted, "test", "oops")))
}

func TestHandlerServesMetrics(t *testing.T) {
	c, err := New("behave", true)
	require.NoError(t, err)
	c.ObserveTick("patrol", bt.StatusRunning, time.Millisecond)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `behave_ticks_total{status="Running",tree="patrol"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
