package card

import (
	"bytes"
	"sync"
	"time"
)

// Surface is the card's isolated rendering boundary. Each commit replaces the
// whole fragment; readers see either the previous fragment or the new one.
type Surface struct {
	mu          sync.RWMutex
	html        []byte
	version     uint64
	committedAt time.Time
}

// Commit replaces the surface contents and returns the new version.
func (s *Surface) Commit(html []byte, at time.Time) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.html = bytes.Clone(html)
	s.version++
	s.committedAt = at
	return s.version
}

// Contents returns a copy of the committed fragment and its version. ok is
// false until the first commit.
func (s *Surface) Contents() (html []byte, version uint64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.version == 0 {
		return nil, 0, false
	}
	return bytes.Clone(s.html), s.version, true
}

// Stat returns the current version and when it was committed, read together.
// The version is 0 until the first commit.
func (s *Surface) Stat() (version uint64, committedAt time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version, s.committedAt
}
