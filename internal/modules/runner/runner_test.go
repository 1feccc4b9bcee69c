package runner

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunHoldsASingleSlot(t *testing.T) {
	r := New(zap.NewNop())
	defer r.Stop()

	var ticks atomic.Int64
	task := func(context.Context, Parameters) { ticks.Add(1) }

	require.NoError(t, r.Run(task, Options{Name: "a", Parameters: Parameters{Delay: time.Hour}}))
	assert.True(t, r.IsRunning())

	err := r.Run(task, Options{Name: "b", Parameters: Parameters{Delay: time.Hour}})
	require.ErrorIs(t, err, ErrAlreadyRunning)

	assert.Eventually(t, func() bool { return ticks.Load() >= 1 }, time.Second, 5*time.Millisecond,
		"task runs once immediately on start")
}

func TestStopWaitsForLoopExit(t *testing.T) {
	r := New(zap.NewNop())

	started := make(chan struct{})
	task := func(ctx context.Context, _ Parameters) {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	require.NoError(t, r.Run(task, Options{Name: "a", Parameters: Parameters{Delay: 5 * time.Millisecond}}))
	<-started

	require.NoError(t, r.Stop())
	assert.False(t, r.IsRunning())

	// slot is free again
	require.NoError(t, r.Run(task, Options{Name: "b", Parameters: Parameters{Delay: time.Hour}}))
	require.NoError(t, r.Stop())
}

func TestStopOnIdleRunnerIsNoOp(t *testing.T) {
	r := New(zap.NewNop())
	require.NoError(t, r.Stop())
	require.NoError(t, r.Stop())
	assert.False(t, r.IsRunning())
}

func TestPanickingTaskKeepsTicking(t *testing.T) {
	r := New(zap.NewNop())
	defer r.Stop()

	var ticks atomic.Int64
	task := func(context.Context, Parameters) {
		ticks.Add(1)
		panic("single bad cycle")
	}
	require.NoError(t, r.Run(task, Options{Name: "a", Parameters: Parameters{Delay: 5 * time.Millisecond}}))

	assert.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestDefaultDelayApplied(t *testing.T) {
	r := New(zap.NewNop())
	defer r.Stop()

	got := make(chan time.Duration, 1)
	task := func(_ context.Context, params Parameters) {
		select {
		case got <- params.Delay:
		default:
		}
	}
	require.NoError(t, r.Run(task, Options{Name: "a"}))

	select {
	case d := <-got:
		assert.Equal(t, 30*time.Second, d)
	case <-time.After(time.Second):
		t.Fatal("task never invoked")
	}
}

func TestUpdateNotificationTracksStatusLine(t *testing.T) {
	r := New(zap.NewNop())

	// Idle runner has no notification to refresh.
	r.UpdateNotification("Tracking", "Last update: 10:15:00", 0)
	title, desc := r.Notification()
	assert.Empty(t, title)
	assert.Empty(t, desc)

	require.NoError(t, r.Run(func(context.Context, Parameters) {}, Options{
		Name:        "a",
		Title:       "Tracking",
		Description: "starting",
		Parameters:  Parameters{Delay: time.Hour},
	}))
	defer r.Stop()

	r.UpdateNotification("Tracking", "Last update: 10:15:00", 0)
	title, desc = r.Notification()
	assert.Equal(t, "Tracking", title)
	assert.Equal(t, "Last update: 10:15:00", desc)
}
