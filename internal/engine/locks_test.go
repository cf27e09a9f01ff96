package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	k := newKeyedMutex()

	var mu sync.Mutex
	active, maxActive := 0, 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("same")
			defer unlock()

			mu.Lock()
			active++
			maxActive = max(maxActive, active)
			mu.Unlock()

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive)
	assert.Equal(t, 0, k.size())
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	k := newKeyedMutex()
	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	assert.Equal(t, 2, k.size())
	unlockA()
	unlockB()
	assert.Equal(t, 0, k.size())
}
