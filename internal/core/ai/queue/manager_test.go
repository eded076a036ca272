package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"meal-planner/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	m := NewManager(&config.QueueConfig{Workers: 2, MaxSize: 1})
	defer m.Close()
	ctx := context.Background()

	r1, err := m.Acquire(ctx)
	require.NoError(t, err)
	r2, err := m.Acquire(ctx)
	require.NoError(t, err)

	status := m.GetQueueStatus()
	assert.Equal(t, 2, status.InFlight)
	assert.Equal(t, 2, status.Workers)

	r1()
	r2()
	status = m.GetQueueStatus()
	assert.Equal(t, 0, status.InFlight)
	assert.Equal(t, 2, status.ProcessedCount)
}

func TestAcquireWaitsForSlot(t *testing.T) {
	m := NewManager(&config.QueueConfig{Workers: 1, MaxSize: 1})
	defer m.Close()

	release, err := m.Acquire(context.Background())
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		r, err := m.Acquire(context.Background())
		if err == nil {
			r()
		}
		close(acquired)
	}()

	require.Eventually(t, func() bool { return m.GetQueueStatus().Waiting == 1 }, time.Second, 5*time.Millisecond)

	// 等待數已達上限
	_, err = m.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Contains(t, err.Error(), "overloaded")

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter was not released")
	}
}

func TestAcquireCancelled(t *testing.T) {
	m := NewManager(&config.QueueConfig{Workers: 1, MaxSize: 5})
	defer m.Close()

	release, err := m.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = m.Acquire(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 0, m.GetQueueStatus().Waiting)
}

func TestCloseWakesWaiters(t *testing.T) {
	m := NewManager(&config.QueueConfig{Workers: 1, MaxSize: 5})

	release, err := m.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	errs := make(chan error, 1)
	go func() {
		_, err := m.Acquire(context.Background())
		errs <- err
	}()
	require.Eventually(t, func() bool { return m.GetQueueStatus().Waiting == 1 }, time.Second, 5*time.Millisecond)

	m.Close()
	m.Close()
	assert.ErrorIs(t, <-errs, ErrClosed)
}
