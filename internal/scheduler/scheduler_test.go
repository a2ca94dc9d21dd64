package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/labor-market/internal/scheduler"
)

type fakeSweeper struct {
	calls       atomic.Int32
	err         error
	sawDeadline atomic.Bool
}

func (f *fakeSweeper) ExpireStaleJobs(ctx context.Context) (int, error) {
	f.calls.Add(1)
	if _, ok := ctx.Deadline(); ok {
		f.sawDeadline.Store(true)
	}
	return 2, f.err
}

func TestRunOnce_AppliesTimeout(t *testing.T) {
	sw := &fakeSweeper{}
	s := scheduler.New(sw, "@every 1h", time.Minute)

	s.RunOnce(context.Background())
	assert.Equal(t, int32(1), sw.calls.Load())
	assert.True(t, sw.sawDeadline.Load())
}

func TestRunOnce_SwallowsErrors(t *testing.T) {
	sw := &fakeSweeper{err: errors.New("db down")}
	s := scheduler.New(sw, "@every 1h", 0)

	assert.NotPanics(t, func() { s.RunOnce(context.Background()) })
	assert.Equal(t, int32(1), sw.calls.Load())
}

func TestStart_RunsOnSchedule(t *testing.T) {
	sw := &fakeSweeper{}
	s := scheduler.New(sw, "@every 1s", time.Second)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool { return sw.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestStart_InvalidSpec(t *testing.T) {
	s := scheduler.New(&fakeSweeper{}, "every hour", time.Second)
	assert.Error(t, s.Start(context.Background()))
}
