package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"assignment-notifier/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Helpers
// ==========================

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// ==========================
// Registration
// ==========================

func TestScheduler_AddTask(t *testing.T) {
	s := New(time.UTC, logger.NewTestLogger(t))
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.AddTask("maintenance", DailyAt(3, 0), noop))
	assert.ErrorIs(t, s.AddTask("maintenance", DailyAt(4, 0), noop), ErrTaskAlreadyRegistered)
	assert.ErrorIs(t, s.RunNow(context.Background(), "missing"), ErrTaskNotFound)
}

func TestScheduler_StartWithoutTasks(t *testing.T) {
	s := New(time.UTC, logger.NewTestLogger(t))
	assert.ErrorIs(t, s.Start(context.Background()), ErrNoTasks)
}

// ==========================
// Execution
// ==========================

func TestScheduler_RunsOnInterval(t *testing.T) {
	s := New(time.UTC, logger.NewTestLogger(t))

	var runs atomic.Int32
	require.NoError(t, s.AddTask("tick", EveryInterval(10*time.Millisecond), func(context.Context) error {
		runs.Add(1)
		return nil
	}))

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestScheduler_TaskErrorDoesNotStopLoop(t *testing.T) {
	s := New(time.UTC, logger.NewTestLogger(t))

	var runs atomic.Int32
	require.NoError(t, s.AddTask("flaky", EveryInterval(5*time.Millisecond), func(context.Context) error {
		runs.Add(1)
		return errors.New("scan failed")
	}))

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()
}

// ==========================
// Locking
// ==========================

func TestRedisLocker_AcquireRelease(t *testing.T) {
	mr, client := setupRedis(t)
	locker := NewRedisLocker(client)
	ctx := context.Background()

	release, ok, err := locker.Acquire(ctx, "upcoming-reminder", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists(lockKeyPrefix+"upcoming-reminder"))

	_, ok, err = locker.Acquire(ctx, "upcoming-reminder", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	release(ctx)
	assert.False(t, mr.Exists(lockKeyPrefix+"upcoming-reminder"))
}

func TestRedisLocker_ReleaseKeepsForeignLock(t *testing.T) {
	mr, client := setupRedis(t)
	locker := NewRedisLocker(client)
	ctx := context.Background()

	release, ok, err := locker.Acquire(ctx, "maintenance", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// lock expired and was taken by another instance
	require.NoError(t, mr.Set(lockKeyPrefix+"maintenance", "other-instance"))
	release(ctx)

	v, err := mr.Get(lockKeyPrefix + "maintenance")
	require.NoError(t, err)
	assert.Equal(t, "other-instance", v)
}

func TestScheduler_RunNowSkipsWhenLocked(t *testing.T) {
	mr, client := setupRedis(t)
	s := New(time.UTC, logger.NewTestLogger(t), WithLocker(NewRedisLocker(client), time.Minute))

	var runs atomic.Int32
	require.NoError(t, s.AddTask("contractor-not-assigned", Hourly(), func(context.Context) error {
		runs.Add(1)
		return nil
	}))

	require.NoError(t, mr.Set(lockKeyPrefix+"contractor-not-assigned", "someone-else"))
	require.NoError(t, s.RunNow(context.Background(), "contractor-not-assigned"))
	assert.Equal(t, int32(0), runs.Load())

	mr.Del(lockKeyPrefix + "contractor-not-assigned")
	require.NoError(t, s.RunNow(context.Background(), "contractor-not-assigned"))
	assert.Equal(t, int32(1), runs.Load())
	assert.False(t, mr.Exists(lockKeyPrefix+"contractor-not-assigned"))
}
