package chordnode

import (
	"path"
	"strings"
)

// StoreCapacity bounds the number of keys the in-memory store accepts.
const StoreCapacity = 4096

// Store is the in-memory keyed blob store backing /static and /dynamic
// resources. It has no versioning and no cross-peer replication: a node
// owns one slice of the ring and never reconciles copies of a key across
// peers.
//
// Store is never accessed from more than one goroutine: the event loop
// holds exclusive access for the duration of a tick, so no mutex guards
// the map.
type Store struct {
	objects map[string][]byte
}

// NewStore returns an empty store seeded with nothing; callers typically
// pre-populate /static entries before starting the event loop.
func NewStore() *Store {
	return &Store{objects: make(map[string][]byte)}
}

// Get returns the blob stored at key, or ErrNotFound.
func (s *Store) Get(key string) ([]byte, error) {
	v, ok := s.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

// Put creates or overwrites the blob at key. /static is serve-only
// (pre-seeded, never written by a client); only /dynamic accepts writes.
// Writing a key whose parent directory has not itself been created under
// /dynamic fails with ErrBadRequest, matching a hierarchical path model
// rather than a flat key space.
func (s *Store) Put(key string, value []byte) error {
	if !strings.HasPrefix(key, "/dynamic/") {
		return ErrForbidden
	}
	parent := path.Dir(key)
	if parent != "/dynamic" {
		if _, ok := s.objects[parent]; !ok {
			return ErrBadRequest
		}
	}
	if _, exists := s.objects[key]; !exists && len(s.objects) >= StoreCapacity {
		return ErrStoreFull
	}
	s.objects[key] = value
	return nil
}

// PutStatic seeds a /static resource at startup, bypassing the
// write-only-to-/dynamic restriction Put enforces for client requests.
func (s *Store) PutStatic(key string, value []byte) error {
	if !strings.HasPrefix(key, "/static/") {
		return ErrForbidden
	}
	s.objects[key] = value
	return nil
}

// Delete removes the blob at key. Deleting outside /dynamic is forbidden.
func (s *Store) Delete(key string) error {
	if !strings.HasPrefix(key, "/dynamic/") {
		return ErrForbidden
	}
	if _, ok := s.objects[key]; !ok {
		return ErrNotFound
	}
	delete(s.objects, key)
	return nil
}
