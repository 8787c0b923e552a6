package buildqueue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHousekeepingRunsScheduledRebuildAndGC(t *testing.T) {
	var rebuilds, gcs int32
	h, err := NewHousekeeping(
		context.Background(),
		New(nil, nil),
		func(ctx context.Context) error { atomic.AddInt32(&rebuilds, 1); return nil },
		func(ctx context.Context) error { atomic.AddInt32(&gcs, 1); return nil },
		30*time.Millisecond,
		30*time.Millisecond,
	)
	require.NoError(t, err)
	defer h.Stop()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&rebuilds) > 0 && atomic.LoadInt32(&gcs) > 0
	}, time.Second, 10*time.Millisecond)
}

func TestHousekeepingDisabledJobsDoNotRun(t *testing.T) {
	var calls int32
	h, err := NewHousekeeping(
		context.Background(),
		New(nil, nil),
		func(ctx context.Context) error { atomic.AddInt32(&calls, 1); return nil },
		nil,
		0, // disabled
		0,
	)
	require.NoError(t, err)
	defer h.Stop()

	time.Sleep(80 * time.Millisecond)
	require.Equal(t, int32(0), atomic.LoadInt32(&calls))
}
