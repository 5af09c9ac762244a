package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	pool := NewPool(4)

	var ran atomic.Int64
	for range 20 {
		pool.Submit(func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
	}

	pool.Shutdown()
	assert.Equal(t, int64(20), ran.Load())
}

func TestPoolDropsTasksAfterShutdown(t *testing.T) {
	pool := NewPool(1)
	pool.Shutdown()

	var ran atomic.Bool
	pool.Submit(func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})

	assert.False(t, ran.Load())
}

// Passing means no send on the closed queue panicked while Shutdown
// raced a burst of submitters.
func TestShutdownDuringSubmitBurst(t *testing.T) {
	pool := NewPool(2)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				pool.Submit(func(ctx context.Context) error { return nil })
			}
		}()
	}

	pool.Shutdown()
	wg.Wait()
}

func TestShutdownIsIdempotent(t *testing.T) {
	pool := NewPool(1)
	pool.Shutdown()
	pool.Shutdown()
}
