package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcJob struct {
	name string
	run  func(ctx context.Context, now Clock) error
}

func (f funcJob) Name() string { return f.name }

func (f funcJob) Run(ctx context.Context, now Clock) error { return f.run(ctx, now) }

func TestRunner_RunOnceBoundsDuration(t *testing.T) {
	r := NewRunner(20*time.Millisecond, nil)

	err := r.RunOnce(context.Background(), funcJob{name: "slow", run: func(ctx context.Context, _ Clock) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunner_RunOncePassesClock(t *testing.T) {
	r := NewRunner(time.Second, nil)
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r.clock = clockAt(fixed)

	var seen time.Time
	require.NoError(t, r.RunOnce(context.Background(), funcJob{name: "clock", run: func(_ context.Context, now Clock) error {
		seen = now()
		return nil
	}}))
	assert.Equal(t, fixed, seen)

	boom := errors.New("boom")
	assert.ErrorIs(t, r.RunOnce(context.Background(), funcJob{name: "fail", run: func(context.Context, Clock) error {
		return boom
	}}), boom)
}

func TestRunner_Schedule(t *testing.T) {
	r := NewRunner(time.Second, nil)

	ran := make(chan struct{}, 1)
	require.NoError(t, r.Schedule("@every 1s", funcJob{name: "tick", run: func(context.Context, Clock) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}}))
	assert.Error(t, r.Schedule("not a spec", funcJob{name: "bad"}))

	r.Start()
	defer r.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled job never ran")
	}
}
