// Package blobstore implements the scanner's content-addressed dedup
// gate: every blob pulled from a source adapter passes through Observe
// before it is matched, so identical content reached via two different
// origins (two branches, two mirrors, a file copied into an archive) is
// only ever matched once.
package blobstore

import (
	"sync"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// BlobStore is a thread-safe, append-only content-addressed map from
// BlobID to metadata, shared read/write across every worker in a scan.
type BlobStore struct {
	mu       sync.RWMutex
	blobs    map[types.BlobID]*types.BlobMetadata
	interner *Interner
}

// New creates an empty BlobStore with its own string interner.
func New() *BlobStore {
	return &BlobStore{
		blobs:    make(map[types.BlobID]*types.BlobMetadata),
		interner: NewInterner(),
	}
}

// Observe registers a blob's metadata the first time its id is seen.
// Returns Fresh the first time a given BlobID is observed, Seen on every
// subsequent call; callers should skip re-matching a Seen blob.
func (s *BlobStore) Observe(id types.BlobID, meta *types.BlobMetadata) types.ObserveOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.blobs[id]; exists {
		return types.Seen
	}
	s.blobs[id] = meta
	return types.Fresh
}

// Lookup returns the metadata recorded for id, if any.
func (s *BlobStore) Lookup(id types.BlobID) (*types.BlobMetadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.blobs[id]
	return meta, ok
}

// Len reports how many distinct blobs have been observed.
func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Interner exposes the store's shared string interner.
func (s *BlobStore) Interner() *Interner {
	return s.interner
}
