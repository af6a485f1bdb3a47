package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterReprocessingZeroIntervalIsNoOp(t *testing.T) {
	sched, err := New()
	require.NoError(t, err)
	defer sched.Shutdown()

	called := false
	err = sched.RegisterReprocessing(0, func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestRegisterReprocessingRunsOnInterval(t *testing.T) {
	sched, err := New()
	require.NoError(t, err)
	defer sched.Shutdown()

	runs := make(chan struct{}, 4)
	err = sched.RegisterReprocessing(10*time.Millisecond, func(ctx context.Context) error {
		runs <- struct{}{}
		return nil
	})
	require.NoError(t, err)

	sched.Start()

	select {
	case <-runs:
	case <-time.After(2 * time.Second):
		t.Fatal("expected reprocessing job to run at least once")
	}
}

func TestRegisterArchiveCompactionAcceptsValidHour(t *testing.T) {
	sched, err := New()
	require.NoError(t, err)
	defer sched.Shutdown()

	err = sched.RegisterArchiveCompaction(3, func(ctx context.Context) error { return nil })
	assert.NoError(t, err)
}
