package service

import (
	"sort"
	"sync"

	"github.com/matprat/matprat/pkg/db"
)

// MemorySessionStore is a map-backed db.SessionStore. It keeps the same
// ordering contract as the gorm store and is used by tests and by
// deployments that do not want a database file.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*db.ChatSession
	inserted map[string]int // insertion sequence, breaks updated_at ties
	seq      int
}

// NewMemorySessionStore creates an empty in-memory store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*db.ChatSession),
		inserted: make(map[string]int),
	}
}

func (s *MemorySessionStore) Get(id string) (*db.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, db.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (s *MemorySessionStore) Put(session *db.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inserted[session.ID]; !ok {
		s.inserted[session.ID] = s.seq
		s.seq++
	}
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *MemorySessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return db.ErrSessionNotFound
	}
	delete(s.sessions, id)
	delete(s.inserted, id)
	return nil
}

func (s *MemorySessionStore) List() ([]*db.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make([]*db.ChatSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session.Clone())
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].UpdatedAt.Equal(sessions[j].UpdatedAt) {
			return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
		}
		// Newest insertion first on equal timestamps, matching the
		// created_at DESC tie-break in the gorm store.
		return s.inserted[sessions[i].ID] > s.inserted[sessions[j].ID]
	})
	return sessions, nil
}
