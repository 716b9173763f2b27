package db

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrSessionNotFound is returned by store lookups for unknown session ids.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore is the persistence boundary for chat sessions. The gorm
// implementation below backs production; an in-memory implementation in
// the service package backs tests.
type SessionStore interface {
	// Get returns the session with the given id, or ErrSessionNotFound.
	Get(id string) (*ChatSession, error)
	// Put inserts or replaces the whole session record atomically.
	Put(session *ChatSession) error
	// Delete removes the session, or returns ErrSessionNotFound.
	Delete(id string) error
	// List returns all sessions ordered by updated_at descending; ties
	// keep a stable order across calls.
	List() ([]*ChatSession, error)
}

// GormSessionStore persists sessions in sqlite via gorm
type GormSessionStore struct {
	db *gorm.DB
}

// NewSessionStore creates a gorm-backed session store
func NewSessionStore(gdb *gorm.DB) *GormSessionStore {
	return &GormSessionStore{db: gdb}
}

func (s *GormSessionStore) Get(id string) (*ChatSession, error) {
	var session ChatSession
	if err := s.db.First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &session, nil
}

func (s *GormSessionStore) Put(session *ChatSession) error {
	// Save upserts by primary key; the whole row, messages included, is
	// written in one statement.
	if err := s.db.Save(session).Error; err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *GormSessionStore) Delete(id string) error {
	res := s.db.Delete(&ChatSession{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *GormSessionStore) List() ([]*ChatSession, error) {
	var sessions []*ChatSession
	// created_at breaks updated_at ties so repeated calls return the same
	// order even with second-granularity timestamps.
	err := s.db.Order("updated_at DESC, created_at DESC, id").Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}
