package chordnode

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the fixed number of lookup cache slots.
const DefaultCacheSize = 10

// cacheSlot is one entry of the lookup cache. A slot is empty when
// hashSet is false, pending when hashSet is true and resolved is false,
// and resolved when both are true.
type cacheSlot struct {
	hash     uint16
	neighbor Neighbor
	hashSet  bool
	resolved bool
}

// LookupCache is the bounded structure bridging asynchronous UDP Lookup/
// Reply exchanges to synchronous HTTP request handling.
//
// The slot array is the single source of truth for the pending/resolved
// state machine and its deterministic eviction policy: slot 0 is
// overwritten unconditionally when every slot is occupied, which keeps
// AddPending infallible rather than refusing the insert (see DESIGN.md for
// why overwrite was chosen over refuse). The hashIndex field is a
// best-effort accelerator on top of that array: a
// fixed-capacity LRU map from hash to the slot that last resolved it, so a
// cache hit under steady load does not need the O(N) scan. It is never
// treated as authoritative — Lookup always re-validates against the slot
// array before trusting it, so a stale or evicted index entry just falls
// back to the scan instead of returning a wrong answer.
type LookupCache struct {
	slots     [DefaultCacheSize]cacheSlot
	hashIndex *lru.Cache[uint16, int]
}

// NewLookupCache constructs an empty cache with DefaultCacheSize slots.
func NewLookupCache() *LookupCache {
	idx, err := lru.New[uint16, int](DefaultCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// DefaultCacheSize never is.
		panic(err)
	}
	return &LookupCache{hashIndex: idx}
}

// AddPending inserts hash into the lowest empty slot, or evicts slot 0 and
// inserts there if every slot is occupied. Returns the index written.
func (c *LookupCache) AddPending(hash uint16) int {
	for i := range c.slots {
		if !c.slots[i].hashSet {
			c.slots[i] = cacheSlot{hash: hash, hashSet: true}
			return i
		}
	}
	c.slots[0] = cacheSlot{hash: hash, hashSet: true}
	c.hashIndex.Remove(hash)
	return 0
}

// FindPending returns the lowest index whose hash is set and neighbor is
// unset.
func (c *LookupCache) FindPending() (int, bool) {
	for i := range c.slots {
		if c.slots[i].hashSet && !c.slots[i].resolved {
			return i, true
		}
	}
	return 0, false
}

// Resolve attaches neighbor to the pending hash held at index.
func (c *LookupCache) Resolve(index int, neighbor Neighbor) {
	s := &c.slots[index]
	s.neighbor = neighbor
	s.resolved = true
	c.hashIndex.Add(s.hash, index)
}

// Lookup first tries the slot hashIndex recorded as the last to resolve
// hash, returning its neighbor if that slot is still resolved with hash
// (last-write-wins on duplicate hashes). Otherwise it scans from the
// highest index down, returning the neighbor of the first resolved slot
// whose hash matches.
func (c *LookupCache) Lookup(hash uint16) (Neighbor, bool) {
	if idx, ok := c.hashIndex.Get(hash); ok {
		if s := c.slots[idx]; s.resolved && s.hash == hash {
			return s.neighbor, true
		}
	}
	for i := len(c.slots) - 1; i >= 0; i-- {
		s := c.slots[i]
		if s.resolved && s.hash == hash {
			return s.neighbor, true
		}
	}
	return Neighbor{}, false
}
