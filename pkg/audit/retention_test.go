package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRetentionWorker(t *testing.T) {
	worker := NewRetentionWorker(nil, 30, nil)
	require.NotNil(t, worker)
	assert.Equal(t, 30*24*time.Hour, worker.retention)
	assert.Equal(t, 24*time.Hour, worker.interval)
}

func TestRetentionWorkerDisabledReturns(t *testing.T) {
	worker := NewRetentionWorker(nil, 0, nil)

	done := make(chan struct{})
	go func() {
		worker.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled worker should return immediately")
	}
}

func TestRetentionWorkerCleanup(t *testing.T) {
	store, _ := setupStore(t)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	seedEvent(t, store, "1", "payout", "upload", OutcomeSuccess, now.Add(-40*24*time.Hour))
	seedEvent(t, store, "1", "payout", "upload", OutcomeSuccess, now.Add(-time.Hour))

	worker := NewRetentionWorker(store, 30, nil)
	worker.now = func() time.Time { return now }

	var sweptAt time.Time
	worker.AddSweeper("tokens", func(at time.Time) (int64, error) {
		sweptAt = at
		return 3, nil
	})
	worker.AddSweeper("broken", func(time.Time) (int64, error) {
		return 0, errors.New("boom")
	})

	worker.cleanup()

	assert.Equal(t, now, sweptAt)
	assert.Len(t, listAll(t, store), 1)
}

func TestRetentionWorkerRunStopsOnCancel(t *testing.T) {
	store, _ := setupStore(t)
	worker := NewRetentionWorker(store, 30, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
