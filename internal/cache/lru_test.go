package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func constant(v int) func() int { return func() int { return v } }

func TestLRU_EvictsLeastRecent(t *testing.T) {
	var evicted []string
	c := New[string, int](2, func(k string, _ int) { evicted = append(evicted, k) }, nil)

	c.GetOrAdd("a", constant(1))
	c.GetOrAdd("b", constant(2))
	_, _ = c.Get("a") // a is now MRU
	c.GetOrAdd("c", constant(3))

	_, ok := c.Get("b")
	assert.False(t, ok)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, 2, c.Len())
}

func TestLRU_GetOrAdd(t *testing.T) {
	c := New[string, *int](4, nil, nil)
	calls := 0
	mk := func() *int { calls++; n := calls; return &n }

	first, added := c.GetOrAdd("s", mk)
	assert.True(t, added)
	again, added := c.GetOrAdd("s", mk)
	assert.False(t, added)
	assert.Same(t, first, again)
	assert.Equal(t, 1, calls)
}

func TestLRU_PinnedEntriesSurvive(t *testing.T) {
	busy := map[string]bool{"a": true}
	var evicted []string
	c := New[string, int](2,
		func(k string, _ int) { evicted = append(evicted, k) },
		func(k string, _ int) bool { return busy[k] })

	c.GetOrAdd("a", constant(1)) // LRU end, but pinned
	c.GetOrAdd("b", constant(2))
	c.GetOrAdd("c", constant(3))

	_, ok := c.Get("a")
	assert.True(t, ok, "pinned entry must not be evicted")
	assert.Equal(t, []string{"b"}, evicted)

	// Everything but the newest pinned: the cache overflows instead.
	busy["c"] = true
	c.GetOrAdd("d", constant(4))
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"b"}, evicted)

	// Once released, the next insert shrinks it back.
	busy = map[string]bool{}
	c.GetOrAdd("e", constant(5))
	assert.Equal(t, 2, c.Len())
	_, ok = c.Get("e")
	assert.True(t, ok)
}

func TestLRU_Concurrent(t *testing.T) {
	c := New[int, int](8, nil, nil)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.GetOrAdd(g*100+i, constant(i))
				c.Get(i)
			}
		}(g)
	}
	wg.Wait()
	assert.Equal(t, 8, c.Len())
}

func TestLRU_PanicsOnZeroCapacity(t *testing.T) {
	assert.Panics(t, func() { New[string, int](0, nil, nil) })
}
