package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronSchedulerRunsJob(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	s := NewCronScheduler("@every 1s", time.UTC, nil)

	require.NoError(t, s.Start(context.Background(), func(time.Time) { runs.Add(1) }))
	require.NoError(t, s.Start(context.Background(), func(time.Time) { runs.Add(100) }), "second start is ignored")

	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
	assert.Less(t, runs.Load(), int32(100))
}

func TestCronSchedulerRejectsBadExpression(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("not a cron line", nil, nil)
	err := s.Start(context.Background(), func(time.Time) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a cron line")
}

func TestCronSchedulerStopWithoutStart(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewCronScheduler("*/15 * * * *", nil, nil).Stop(context.Background()))
}

func TestCronSchedulerNilJob(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("*/15 * * * *", nil, nil)
	require.NoError(t, s.Start(context.Background(), nil))
	assert.NoError(t, s.Stop(context.Background()))
}
