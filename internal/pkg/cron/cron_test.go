package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRunsJobsOnInterval(t *testing.T) {
	s := New()
	var runs atomic.Int64
	s.Register(Job{
		Name:     "tick",
		Interval: 10 * time.Millisecond,
		Fn:       func(context.Context) error { runs.Add(1); return nil },
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestManualRunTriggersJob(t *testing.T) {
	s := New()
	var runs atomic.Int64
	s.Register(Job{
		Name:     "sweep",
		Interval: time.Hour,
		Fn:       func(context.Context) error { runs.Add(1); return nil },
	})

	require.NoError(t, s.Run(context.Background(), "sweep"))
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	assert.Error(t, s.Run(context.Background(), "unknown"))
}

func TestListReflectsJobOutcome(t *testing.T) {
	s := New()
	s.Register(Job{
		Name:     "failing",
		Interval: time.Hour,
		Fn:       func(context.Context) error { return errors.New("boom") },
	})

	require.NoError(t, s.Run(context.Background(), "failing"))
	assert.Eventually(t, func() bool {
		items := s.List()
		return len(items) == 1 && items[0].Status == StatusReject && items[0].Message == "boom"
	}, time.Second, 5*time.Millisecond)
}
