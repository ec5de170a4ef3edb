package indexer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIndexLock tests that only one batch run can hold the lock at a time
func TestIndexLock(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "TryAcquire succeeds when lock is available",
			testFunc: func(t *testing.T) {
				var lock IndexLock
				acquired := lock.TryAcquire()
				assert.True(t, acquired, "TryAcquire should succeed when lock is available")
				lock.Release()
			},
		},
		{
			name: "TryAcquire fails when lock is held",
			testFunc: func(t *testing.T) {
				var lock IndexLock

				// First goroutine acquires the lock
				acquired1 := lock.TryAcquire()
				require.True(t, acquired1, "First TryAcquire should succeed")

				// Second goroutine tries to acquire while first holds it
				acquired2 := lock.TryAcquire()
				assert.False(t, acquired2, "Second TryAcquire should fail while lock is held")

				lock.Release()
			},
		},
		{
			name: "Release makes lock available again",
			testFunc: func(t *testing.T) {
				var lock IndexLock

				// Acquire and release
				acquired1 := lock.TryAcquire()
				require.True(t, acquired1)
				lock.Release()

				// Should be able to acquire again
				acquired2 := lock.TryAcquire()
				assert.True(t, acquired2, "Lock should be available after Release")
				lock.Release()
			},
		},
		{
			name: "Concurrent goroutines attempting acquisition",
			testFunc: func(t *testing.T) {
				var lock IndexLock
				const numGoroutines = 50

				acquired := make([]bool, numGoroutines)
				var wg sync.WaitGroup
				wg.Add(numGoroutines)

				// Every goroutine races for the same lock
				for i := range numGoroutines {
					go func() {
						defer wg.Done()
						acquired[i] = lock.TryAcquire()
					}()
				}

				wg.Wait()

				successCount := 0
				for _, success := range acquired {
					if success {
						successCount++
					}
				}

				assert.Equal(t, 1, successCount, "Exactly one goroutine should acquire the lock")

				lock.Release()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.testFunc(t)
		})
	}
}
