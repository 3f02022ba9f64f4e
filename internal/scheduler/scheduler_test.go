package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneybot/internal/metrics"
)

func TestDailyAt_Next(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	d := DailyAt{Hour: 15, Minute: 45, Location: loc}

	tests := []struct {
		name  string
		after time.Time
		want  time.Time
	}{
		{"earlier same day", time.Date(2026, 5, 12, 9, 0, 0, 0, loc), time.Date(2026, 5, 12, 15, 45, 0, 0, loc)},
		{"exactly at time", time.Date(2026, 5, 12, 15, 45, 0, 0, loc), time.Date(2026, 5, 13, 15, 45, 0, 0, loc)},
		{"later same day", time.Date(2026, 5, 12, 23, 0, 0, 0, loc), time.Date(2026, 5, 13, 15, 45, 0, 0, loc)},
		{"month rollover", time.Date(2026, 5, 31, 16, 0, 0, 0, loc), time.Date(2026, 6, 1, 15, 45, 0, 0, loc)},
		{"other zone input", time.Date(2026, 5, 12, 9, 0, 0, 0, time.UTC), time.Date(2026, 5, 13, 15, 45, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(d.Next(tt.after)), "got %s", d.Next(tt.after))
		})
	}
}

func TestEvery_Next(t *testing.T) {
	at := time.Date(2026, 5, 12, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, at.Add(time.Minute), Every(time.Minute).Next(at))
}

func TestScheduler_ErrorsAndPanicsDoNotStopJob(t *testing.T) {
	m := metrics.New()
	s := New(m, zerolog.Nop())

	var calls atomic.Int32
	s.Add("flaky", Every(5*time.Millisecond), func(ctx context.Context) (int, error) {
		switch calls.Add(1) {
		case 1:
			return 0, errors.New("boom")
		case 2:
			panic("kaboom")
		}
		return 1, nil
	})

	s.Start(context.Background())
	require.Eventually(t, func() bool { return calls.Load() >= 4 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, testutil.ToFloat64(m.JobRunsTotal.WithLabelValues("flaky", "error")), float64(2))
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.JobRunsTotal.WithLabelValues("flaky", "ok")), float64(1))
}

func TestScheduler_JobNeverOverlapsItself(t *testing.T) {
	s := New(nil, zerolog.Nop())

	var active, maxActive, runs atomic.Int32
	s.Add("slow", Every(2*time.Millisecond), func(ctx context.Context) (int, error) {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		active.Add(-1)
		runs.Add(1)
		return 0, nil
	})

	s.Start(context.Background())
	require.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(1), maxActive.Load())
}

func TestScheduler_JobsRunIndependently(t *testing.T) {
	s := New(nil, zerolog.Nop())

	release := make(chan struct{})
	var fastRuns atomic.Int32
	s.Add("blocked", Every(time.Millisecond), func(ctx context.Context) (int, error) {
		<-release
		return 0, nil
	})
	s.Add("fast", Every(time.Millisecond), func(ctx context.Context) (int, error) {
		fastRuns.Add(1)
		return 0, nil
	})

	s.Start(context.Background())
	require.Eventually(t, func() bool { return fastRuns.Load() >= 5 }, 2*time.Second, time.Millisecond)
	close(release)
	s.Stop()
}

func TestScheduler_StopWaitsForInFlightRun(t *testing.T) {
	s := New(nil, zerolog.Nop())

	started := make(chan struct{})
	release := make(chan struct{})
	var sawCancel atomic.Bool
	var once atomic.Bool
	s.Add("long", Every(time.Millisecond), func(ctx context.Context) (int, error) {
		if once.CompareAndSwap(false, true) {
			close(started)
		}
		<-release
		if ctx.Err() != nil {
			sawCancel.Store(true)
		}
		return 0, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	<-started

	cancel()
	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a run was in flight")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the run finished")
	}
	assert.False(t, sawCancel.Load())
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	s := New(nil, zerolog.Nop())
	s.Stop()
	s.Start(context.Background())
	s.Stop()
	s.Stop()
}
