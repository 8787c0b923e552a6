package buildqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bengal-ssg/bengal/internal/changeclass"
	"github.com/bengal-ssg/bengal/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerBuildRunsOnce(t *testing.T) {
	var calls int
	var mu sync.Mutex
	trig := New(func(ctx context.Context, changes []changeclass.Change) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	}, nil)
	trig.StabilizationDelay = 0

	trig.TriggerBuild(context.Background(), []changeclass.Change{{Path: "a.md", Type: changeclass.EventModified}})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
	assert.False(t, trig.Building())
}

func TestTriggerBuildCoalescesConcurrentChanges(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	var seenPaths []string

	trig := New(func(ctx context.Context, changes []changeclass.Change) error {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(started)
			<-release
		}
		mu.Lock()
		for _, c := range changes {
			seenPaths = append(seenPaths, c.Path)
		}
		mu.Unlock()
		return nil
	}, nil)
	trig.StabilizationDelay = 0

	go trig.TriggerBuild(context.Background(), []changeclass.Change{{Path: "a.md", Type: changeclass.EventModified}})
	<-started

	// Second and third trigger while the first build is in flight: these
	// must be unioned into pending rather than starting a second build.
	trig.TriggerBuild(context.Background(), []changeclass.Change{{Path: "b.md", Type: changeclass.EventModified}})
	trig.TriggerBuild(context.Background(), []changeclass.Change{{Path: "c.md", Type: changeclass.EventCreated}})

	close(release)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, seenPaths, "b.md")
	assert.Contains(t, seenPaths, "c.md")
}

func TestTriggerBuildClearsBuildingFlagOnError(t *testing.T) {
	trig := New(func(ctx context.Context, changes []changeclass.Change) error {
		return errors.New("boom")
	}, nil)
	trig.StabilizationDelay = 0

	trig.TriggerBuild(context.Background(), []changeclass.Change{{Path: "a.md", Type: changeclass.EventModified}})

	assert.False(t, trig.Building())
	assert.EqualError(t, trig.LastError(), "boom")
}

func TestTriggerBuildClearsBuildingFlagOnPanic(t *testing.T) {
	trig := New(func(ctx context.Context, changes []changeclass.Change) error {
		panic("unexpected")
	}, nil)
	trig.StabilizationDelay = 0

	trig.TriggerBuild(context.Background(), []changeclass.Change{{Path: "a.md", Type: changeclass.EventModified}})

	assert.False(t, trig.Building())
	require.Error(t, trig.LastError())
}

func TestTriggerBuildVetoSkipsBuild(t *testing.T) {
	var calls int
	trig := New(func(ctx context.Context, changes []changeclass.Change) error {
		calls++
		return nil
	}, func(changes []changeclass.Change) bool {
		return false
	})
	trig.StabilizationDelay = 0

	trig.TriggerBuild(context.Background(), []changeclass.Change{{Path: "a.md", Type: changeclass.EventModified}})

	assert.Equal(t, 0, calls)
	assert.False(t, trig.Building())
}

func TestTriggerBuildRetriesTransientFailureThenSucceeds(t *testing.T) {
	var calls int
	var mu sync.Mutex
	trig := New(func(ctx context.Context, changes []changeclass.Change) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	}, nil)
	trig.StabilizationDelay = 0
	trig.RetryPolicy = retry.Policy{Mode: "fixed", Initial: time.Millisecond, Max: time.Millisecond, MaxRetries: 3}

	trig.TriggerBuild(context.Background(), nil)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
	assert.NoError(t, trig.LastError())
}

func TestTriggerBuildGivesUpAfterRetriesExhausted(t *testing.T) {
	var calls int
	var mu sync.Mutex
	trig := New(func(ctx context.Context, changes []changeclass.Change) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return errors.New("still broken")
	}, nil)
	trig.StabilizationDelay = 0
	trig.RetryPolicy = retry.Policy{Mode: "fixed", Initial: time.Millisecond, Max: time.Millisecond, MaxRetries: 2}

	trig.TriggerBuild(context.Background(), nil)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, calls) // first attempt + 2 retries
	assert.Error(t, trig.LastError())
}

func TestTriggerBuildRetryAbortsOnContextCancel(t *testing.T) {
	var calls int
	var mu sync.Mutex
	trig := New(func(ctx context.Context, changes []changeclass.Change) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return errors.New("broken")
	}, nil)
	trig.StabilizationDelay = 0
	trig.RetryPolicy = retry.Policy{Mode: "fixed", Initial: time.Hour, Max: time.Hour, MaxRetries: 5}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	trig.TriggerBuild(ctx, nil)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls) // no retry attempted once ctx is already done
	assert.Error(t, trig.LastError())
}

func TestUnionChangesDedupesByPathKeepingLatest(t *testing.T) {
	a := []changeclass.Change{{Path: "a.md", Type: changeclass.EventModified}}
	b := []changeclass.Change{{Path: "a.md", Type: changeclass.EventDeleted}, {Path: "b.md", Type: changeclass.EventCreated}}

	merged := unionChanges(a, b)

	require.Len(t, merged, 2)
	assert.Equal(t, changeclass.EventDeleted, merged[0].Type)
	assert.Equal(t, "b.md", merged[1].Path)
}
