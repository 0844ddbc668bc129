package sessions

import (
	"context"
	"slices"
	"sync"
	"time"
)

type memoryEntry struct {
	state     State
	expiresAt time.Time
}

// MemoryStore keeps sessions in process; entries expire ttl after their last Set.
// Expired entries are dropped when read, and swept from Set at most once per ttl.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]memoryEntry
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*State, error) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if s.expired(e) {
		s.mu.Lock()
		if e, ok := s.sessions[id]; ok && s.expired(e) {
			delete(s.sessions, id)
		}
		s.mu.Unlock()
		return nil, nil
	}
	return copyState(&e.state), nil
}

func (s *MemoryStore) Set(_ context.Context, id string, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if s.ttl > 0 && now.Sub(s.lastSweep) >= s.ttl {
		s.sweep()
		s.lastSweep = now
	}
	s.sessions[id] = memoryEntry{state: *copyState(state), expiresAt: now.Add(s.ttl)}
	return nil
}

// sweep drops every expired entry; called with mu held.
func (s *MemoryStore) sweep() {
	for id, e := range s.sessions {
		if s.expired(e) {
			delete(s.sessions, id)
		}
	}
}

func (s *MemoryStore) Clear(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func copyState(st *State) *State {
	out := &State{Transcript: slices.Clone(st.Transcript)}
	if st.Document != nil {
		ref := *st.Document
		out.Document = &ref
	}
	return out
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return s.ttl > 0 && !s.now().Before(e.expiresAt)
}
