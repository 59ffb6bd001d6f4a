package chordnode

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupCache_pendingThenResolve(t *testing.T) {
	c := NewLookupCache()
	idx := c.AddPending(0x1234)

	_, ok := c.Lookup(0x1234)
	require.False(t, ok, "unresolved pending entry must not be returned by Lookup")

	n := Neighbor{ID: 7, Host: net.IPv4(1, 2, 3, 4), Port: 9000}
	c.Resolve(idx, n)

	got, ok := c.Lookup(0x1234)
	require.True(t, ok)
	require.Equal(t, n, got)
}

func TestLookupCache_findPendingReturnsLowestIndex(t *testing.T) {
	c := NewLookupCache()
	c.AddPending(0x0001)
	i2 := c.AddPending(0x0002)
	c.Resolve(0, Neighbor{ID: 1})

	idx, ok := c.FindPending()
	require.True(t, ok)
	require.Equal(t, i2, idx)
}

func TestLookupCache_lastWriteWinsOnDuplicateHash(t *testing.T) {
	c := NewLookupCache()
	i1 := c.AddPending(0x5555)
	i2 := c.AddPending(0x5555)
	require.NotEqual(t, i1, i2)

	first := Neighbor{ID: 1}
	second := Neighbor{ID: 2}
	c.Resolve(i1, first)
	c.Resolve(i2, second)

	got, ok := c.Lookup(0x5555)
	require.True(t, ok)
	require.Equal(t, second, got, "lookup should return the most recently resolved neighbor for a duplicate hash")
}

func TestLookupCache_evictsSlotZeroWhenFull(t *testing.T) {
	c := NewLookupCache()
	for i := 0; i < DefaultCacheSize; i++ {
		idx := c.AddPending(uint16(i))
		c.Resolve(idx, Neighbor{ID: uint16(i)})
	}
	// All ten slots are now resolved; the next insert must evict slot 0.
	idx := c.AddPending(0xAAAA)
	require.Equal(t, 0, idx)

	_, ok := c.Lookup(0) // the original occupant of slot 0
	require.False(t, ok)
}

func TestLookupCache_manyPendingThenResolveInAnyOrder(t *testing.T) {
	c := NewLookupCache()
	hashes := make([]uint16, DefaultCacheSize)
	indices := make([]int, DefaultCacheSize)
	for i := range hashes {
		hashes[i] = uint16(1000 + i)
		indices[i] = c.AddPending(hashes[i])
	}

	// Resolve in reverse order.
	for i := len(indices) - 1; i >= 0; i-- {
		c.Resolve(indices[i], Neighbor{ID: uint16(i)})
	}

	for i, h := range hashes {
		got, ok := c.Lookup(h)
		require.True(t, ok)
		require.Equal(t, uint16(i), got.ID)
	}
}
