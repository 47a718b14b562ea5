// Package ownerlock provides a single-slot guard per key, used for owner ids
// and storage keys. A second acquisition of a busy key fails immediately
// instead of waiting.
package ownerlock

import "sync"

// Set tracks which owners currently hold their slot. The zero value is ready
// to use.
type Set struct {
	mu    sync.Mutex
	held  map[string]uint64
	token uint64
}

// TryAcquire takes the owner's slot. ok is false when it is already held.
// release frees the slot and is safe to call more than once.
func (s *Set) TryAcquire(owner string) (release func(), ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.held == nil {
		s.held = make(map[string]uint64)
	}
	if _, busy := s.held[owner]; busy {
		return func() {}, false
	}
	s.token++
	tok := s.token
	s.held[owner] = tok

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.held[owner] == tok {
				delete(s.held, owner)
			}
		})
	}, true
}

// Held reports whether owner currently holds a slot.
func (s *Set) Held(owner string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.held[owner]
	return ok
}

// Len returns the number of held slots.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.held)
}
