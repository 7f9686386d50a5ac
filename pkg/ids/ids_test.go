package ids_test

import (
	"sync"
	"testing"

	"github.com/aretw0/arbor/pkg/ids"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_Monotonic(t *testing.T) {
	c := ids.NewClock()
	prev := c.Next()
	for i := 0; i < 1000; i++ {
		v := c.Next()
		require.Greater(t, v, prev)
		prev = v
	}
}

func TestClock_ConcurrentUnique(t *testing.T) {
	c := ids.NewClock()
	var (
		mu   sync.Mutex
		seen = ids.NewSet()
		wg   sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				v := c.Next()
				mu.Lock()
				assert.False(t, seen.Has(v), "duplicate id %d", v)
				seen.Add(v)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 4000)
}

func TestSequence(t *testing.T) {
	s := ids.NewSequence(10)
	assert.Equal(t, int64(10), s.Next())
	assert.Equal(t, int64(11), s.Next())
}

func TestFresh_SkipsTaken(t *testing.T) {
	s := ids.NewSequence(1)
	taken := ids.NewSet(1, 2, 4)
	other := ids.NewSet(3)

	assert.Equal(t, int64(5), ids.Fresh(s, taken.Has, other.Has))
	assert.Equal(t, int64(6), ids.Fresh(s, nil))
}
