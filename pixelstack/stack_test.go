package pixelstack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackLIFOOrder(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		s.Push(Entry{Index: int32(i), Value: float32(i)})
	}
	require.Equal(t, 5, s.Len())

	for i := 4; i >= 0; i-- {
		require.False(t, s.Empty())
		assert.Equal(t, int32(i), s.Top().Index)
		assert.Equal(t, int32(i), s.Pop().Index)
	}
	assert.True(t, s.Empty())
}

func TestStackGrowsPastInitialCapacity(t *testing.T) {
	s := New()
	for i := 0; i < initialCapacity*3+1; i++ {
		s.Push(Entry{Index: int32(i)})
	}
	assert.Equal(t, initialCapacity*3+1, s.Len())
	assert.Equal(t, int32(initialCapacity*3), s.Pop().Index)
}
