package keys

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/brewer/internal/device"
)

func TestCellEmpty(t *testing.T) {
	var c Cell
	_, ok := c.Take()
	assert.False(t, ok)
	_, ok = c.Peek()
	assert.False(t, ok)
}

func TestCellTakeClears(t *testing.T) {
	var c Cell
	c.Put(device.KeyPlay)

	k, ok := c.Peek()
	require.True(t, ok)
	assert.Equal(t, device.KeyPlay, k)

	k, ok = c.Take()
	require.True(t, ok)
	assert.Equal(t, device.KeyPlay, k)

	_, ok = c.Take()
	assert.False(t, ok, "second take should find the slot empty")
}

func TestCellOverwriteKeepsLatest(t *testing.T) {
	var c Cell
	c.Put(device.Key1)
	c.Put(device.Key2)
	c.Put(device.Key3)

	k, ok := c.Take()
	require.True(t, ok)
	assert.Equal(t, device.Key3, k)

	received, overwritten := c.Stats()
	assert.Equal(t, uint64(3), received)
	assert.Equal(t, uint64(2), overwritten)
}

func TestCellConcurrentProducer(t *testing.T) {
	var c Cell
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			c.Put(device.Key5)
		}
	}()

	seen := 0
	for i := 0; i < 1000; i++ {
		if k, ok := c.Take(); ok {
			assert.Equal(t, device.Key5, k)
			seen++
		}
	}
	wg.Wait()
	if k, ok := c.Take(); ok {
		assert.Equal(t, device.Key5, k)
		seen++
	}

	received, overwritten := c.Stats()
	assert.Equal(t, uint64(1000), received)
	assert.Equal(t, received, uint64(seen)+overwritten)
}

func TestScript(t *testing.T) {
	s := NewScript(device.Key1, "", device.KeyPlay)

	k, ok := s.Take()
	assert.True(t, ok)
	assert.Equal(t, device.Key1, k)

	_, ok = s.Take()
	assert.False(t, ok, "empty label is a poll with no key")

	k, ok = s.Take()
	assert.True(t, ok)
	assert.Equal(t, device.KeyPlay, k)

	_, ok = s.Take()
	assert.False(t, ok)
	assert.Equal(t, 4, s.Taken)
	assert.Equal(t, 0, s.Remaining())
}
