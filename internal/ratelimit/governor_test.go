package ratelimit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoop(t *testing.T) {
	var g Governor = Noop{}
	for i := 0; i < 100; i++ {
		d, err := g.Check(context.Background(), nil)
		require.NoError(t, err)
		assert.False(t, d.Limited)
	}
	assert.Equal(t, StrategyNone, mustCheck(t, g).Strategy)
}

func TestTimeBased(t *testing.T) {
	clock := newFakeClock()
	g, err := NewTimeBased(time.Second, WithClock(clock.Now))
	require.NoError(t, err)

	assert.False(t, mustCheck(t, g).Limited, "первый вызов допускается")

	clock.Advance(300 * time.Millisecond)
	d := mustCheck(t, g)
	assert.True(t, d.Limited)
	assert.Equal(t, 700*time.Millisecond, d.Wait)

	clock.Advance(700 * time.Millisecond)
	assert.False(t, mustCheck(t, g).Limited)
}

func TestThreshold_HardCap(t *testing.T) {
	clock := newFakeClock()
	g, err := NewThreshold(ThresholdConfig{MaxCallsPerSecond: 2}, WithClock(clock.Now))
	require.NoError(t, err)

	assert.False(t, mustCheck(t, g).Limited)
	clock.Advance(100 * time.Millisecond)
	assert.False(t, mustCheck(t, g).Limited)

	clock.Advance(100 * time.Millisecond)
	d := mustCheck(t, g)
	assert.True(t, d.Limited, "третий вызов в той же секунде отклоняется")
	assert.Equal(t, 800*time.Millisecond, d.Wait)
	assert.Equal(t, 2, d.Details["calls"])

	clock.Advance(800 * time.Millisecond)
	assert.False(t, mustCheck(t, g).Limited, "новая секунда — новый счётчик")
}

func TestThreshold_AdvisoryLevelsDoNotReject(t *testing.T) {
	clock := newFakeClock()
	g, err := NewThreshold(ThresholdConfig{MaxCallsPerSecond: 10, Warning: 0.5, Critical: 0.8}, WithClock(clock.Now))
	require.NoError(t, err)

	var last Decision
	for i := 0; i < 8; i++ {
		last = mustCheck(t, g)
		require.False(t, last.Limited, "вызов %d", i+1)
	}
	assert.Equal(t, true, last.Details["is_near_limit"])
	assert.Equal(t, true, last.Details["is_critical"])
	assert.InDelta(t, 0.8, last.Details["usage"], 1e-9)
}

func TestThreshold_ObserveAccumulates(t *testing.T) {
	clock := newFakeClock()
	g, err := NewThreshold(ThresholdConfig{MaxCallsPerSecond: 5}, WithClock(clock.Now))
	require.NoError(t, err)

	mustCheck(t, g)
	g.Observe(250 * time.Millisecond)
	g.Observe(250 * time.Millisecond)

	d := mustCheck(t, g)
	assert.InDelta(t, 0.5, d.Details["total_time"], 1e-9)
}

func TestThreshold_MinDelay(t *testing.T) {
	clock := newFakeClock()
	g, err := NewThreshold(ThresholdConfig{MaxCallsPerSecond: 100, MinDelay: 200 * time.Millisecond}, WithClock(clock.Now))
	require.NoError(t, err)

	mustCheck(t, g)
	clock.Advance(50 * time.Millisecond)
	d := mustCheck(t, g)
	assert.True(t, d.Limited)
	assert.Equal(t, 150*time.Millisecond, d.Wait)
}

func TestThreshold_InvalidConfig(t *testing.T) {
	_, err := NewThreshold(ThresholdConfig{})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewThreshold(ThresholdConfig{MaxCallsPerSecond: 1, Warning: 0.95, Critical: 0.9})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSlidingWindow(t *testing.T) {
	clock := newFakeClock()
	g, err := NewSlidingWindow(3, 60*time.Second, WithClock(clock.Now))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.False(t, mustCheck(t, g).Limited, "вызов %d", i+1)
		clock.Advance(time.Second)
	}

	d := mustCheck(t, g)
	assert.True(t, d.Limited, "четвёртый вызов внутри окна")
	// Самый старый вызов был 3s назад: выйдет из окна через 57s.
	assert.Equal(t, 57*time.Second, d.Wait)

	clock.Advance(61 * time.Second)
	assert.False(t, mustCheck(t, g).Limited, "после окна вызов допускается")
}

func TestSlidingWindow_Concurrent(t *testing.T) {
	clock := newFakeClock()
	g, err := NewSlidingWindow(50, time.Minute, WithClock(clock.Now))
	require.NoError(t, err)

	assert.Equal(t, int64(50), checkConcurrently(g, 200))
}

func TestTimeBased_Concurrent(t *testing.T) {
	clock := newFakeClock()
	g, err := NewTimeBased(time.Second, WithClock(clock.Now))
	require.NoError(t, err)

	assert.Equal(t, int64(1), checkConcurrently(g, 200), "в один момент допускается один вызов")

	clock.Advance(time.Second)
	assert.Equal(t, int64(1), checkConcurrently(g, 200))
}

func TestThreshold_Concurrent(t *testing.T) {
	clock := newFakeClock()
	g, err := NewThreshold(ThresholdConfig{MaxCallsPerSecond: 25}, WithClock(clock.Now))
	require.NoError(t, err)

	assert.Equal(t, int64(25), checkConcurrently(g, 200))

	clock.Advance(time.Second)
	assert.Equal(t, int64(25), checkConcurrently(g, 200), "новая секунда — новый счётчик")
}

func TestThreshold_ConcurrentMinDelay(t *testing.T) {
	clock := newFakeClock()
	g, err := NewThreshold(ThresholdConfig{MaxCallsPerSecond: 25, MinDelay: 100 * time.Millisecond}, WithClock(clock.Now))
	require.NoError(t, err)

	assert.Equal(t, int64(1), checkConcurrently(g, 200))
}

func TestTokenBucket(t *testing.T) {
	clock := newFakeClock()
	g, err := NewTokenBucket(2, 2, WithClock(clock.Now))
	require.NoError(t, err)

	assert.False(t, mustCheck(t, g).Limited)
	assert.False(t, mustCheck(t, g).Limited)

	d := mustCheck(t, g)
	assert.True(t, d.Limited)
	assert.Equal(t, 500*time.Millisecond, d.Wait)

	// Отклонённый резерв не съедает токен.
	clock.Advance(500 * time.Millisecond)
	assert.False(t, mustCheck(t, g).Limited)
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Noop{}.Throttle(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestGuard(t *testing.T) {
	g, err := NewTimeBased(30 * time.Millisecond)
	require.NoError(t, err)

	ctx := context.Background()
	call := func(context.Context) (int, error) { return 42, nil }

	out, err := Guard(ctx, g, nil, call)
	require.NoError(t, err)
	assert.Equal(t, 42, out)

	start := time.Now()
	_, err = Guard(ctx, g, nil, call)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond, "второй вызов ждёт throttle")
}

func TestGuard_ObservesAndPropagatesError(t *testing.T) {
	g, err := NewThreshold(ThresholdConfig{MaxCallsPerSecond: 10})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = Guard(context.Background(), g, &Request{Action: "echo"}, func(context.Context) (string, error) {
		time.Sleep(5 * time.Millisecond)
		return "", boom
	})
	assert.ErrorIs(t, err, boom)

	g.mu.Lock()
	total := g.totalTime
	g.mu.Unlock()
	assert.Greater(t, total, time.Duration(0))
}

func TestGuard_CancelledWhileThrottled(t *testing.T) {
	clock := newFakeClock()
	g, err := NewSlidingWindow(1, time.Hour, WithClock(clock.Now))
	require.NoError(t, err)
	mustCheck(t, g)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	_, err = Guard(ctx, g, nil, func(context.Context) (int, error) {
		called = true
		return 0, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)
}

func TestAdmitted(t *testing.T) {
	clock := newFakeClock()
	inner, err := NewTimeBased(time.Second, WithClock(clock.Now))
	require.NoError(t, err)

	// Снаружи вызов уже допущен.
	require.False(t, mustCheck(t, inner).Limited)

	g := Admitted(inner)
	d := mustCheck(t, g)
	assert.False(t, d.Limited, "первый вызов не проверяется повторно")
	assert.Equal(t, StrategyAdmitted, d.Strategy)

	d = mustCheck(t, g)
	assert.True(t, d.Limited, "следующий вызов идёт через стратегию")
	assert.Equal(t, StrategyTime, d.Strategy)
}

func TestAdmitted_GuardDoesNotWait(t *testing.T) {
	inner, err := NewTimeBased(200 * time.Millisecond)
	require.NoError(t, err)
	require.False(t, mustCheck(t, inner).Limited)

	start := time.Now()
	out, err := Guard(context.Background(), Admitted(inner), nil, func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, out)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestAdmitted_ForwardsObserve(t *testing.T) {
	inner, err := NewThreshold(ThresholdConfig{MaxCallsPerSecond: 10})
	require.NoError(t, err)

	_, err = Guard(context.Background(), Admitted(inner), nil, func(context.Context) (int, error) {
		time.Sleep(5 * time.Millisecond)
		return 0, nil
	})
	require.NoError(t, err)

	inner.mu.Lock()
	total := inner.totalTime
	inner.mu.Unlock()
	assert.Greater(t, total, time.Duration(0))
}

func TestRequest_Key(t *testing.T) {
	var nilReq *Request
	assert.Equal(t, "provider", nilReq.Key())
	assert.Equal(t, "provider", (&Request{}).Key())
	assert.Equal(t, "provider", (&Request{Scope: ScopeProvider, Action: "sync"}).Key())
	assert.Equal(t, "sync", (&Request{Scope: ScopeAction, Action: "sync"}).Key())
	assert.Equal(t, "sync", (&Request{Action: "sync"}).Key())
}

// checkConcurrently выполняет n параллельных Check и возвращает число допущенных.
func checkConcurrently(g Governor, n int) int64 {
	var count atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := g.Check(context.Background(), nil)
			if err == nil && !d.Limited {
				count.Add(1)
			}
		}()
	}
	wg.Wait()
	return count.Load()
}

func mustCheck(t *testing.T, g Governor) Decision {
	t.Helper()
	d, err := g.Check(context.Background(), &Request{Action: "test"})
	require.NoError(t, err)
	return d
}
