package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eyalzus12/FourInARowBattle-sub000/internal/server"
)

func TestIDAllocator_SequentialThenExhausted(t *testing.T) {
	a := newIDAllocator(3)

	for want := server.PeerID(1); want <= 3; want++ {
		id, ok := a.get()
		require.True(t, ok)
		assert.Equal(t, want, id)
	}

	_, ok := a.get()
	assert.False(t, ok, "range exhausted")
}

func TestIDAllocator_ReusesFreedIDs(t *testing.T) {
	a := newIDAllocator(2)

	first, ok := a.get()
	require.True(t, ok)
	second, ok := a.get()
	require.True(t, ok)

	a.put(first)
	reused, ok := a.get()
	require.True(t, ok)
	assert.Equal(t, first, reused)

	// Both ids out again; the range is full.
	_, ok = a.get()
	assert.False(t, ok)

	a.put(second)
	a.put(reused)
	for i := 0; i < 2; i++ {
		_, ok := a.get()
		require.True(t, ok)
	}
}
