// Session management - authoritative store of chat sessions
package service

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matprat/matprat/pkg/db"
	"github.com/matprat/matprat/pkg/utils"
)

var (
	// ErrSessionNotFound mirrors the store-level error for callers that
	// only import the service package.
	ErrSessionNotFound = db.ErrSessionNotFound
	// ErrSessionActive rejects deletion of the currently active session.
	ErrSessionActive = errors.New("cannot delete the active session")
)

// titleMaxLen is the rune limit before a derived title is truncated.
const titleMaxLen = 50

// SessionService owns session lifecycle and the "current session" pointer.
// Exactly one session is current at a time; the pointer is process state
// (one user context per process), the sessions themselves are durable.
type SessionService struct {
	store  db.SessionStore
	logger *slog.Logger

	mu        sync.Mutex
	currentID string
}

// NewSessionService creates a session service over the given store
func NewSessionService(store db.SessionStore) *SessionService {
	return &SessionService{
		store:  store,
		logger: utils.GetLogger(),
	}
}

// CreateSession allocates a new empty session with a placeholder title and
// makes it current.
func (s *SessionService) CreateSession() (*db.ChatSession, error) {
	now := time.Now()
	session := &db.ChatSession{
		ID:        uuid.New().String(),
		Title:     db.PlaceholderTitle,
		Messages:  db.MessageList{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Put(session); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.currentID = session.ID
	s.mu.Unlock()

	s.logger.Debug("Created session", "session_id", session.ID)
	return session.Clone(), nil
}

// LoadSession returns the full session and makes it current.
func (s *SessionService) LoadSession(id string) (*db.ChatSession, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	session, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.currentID = session.ID
	s.mu.Unlock()

	return session, nil
}

// AppendTurn appends one user message and the model's reply in order,
// refreshes updated_at and derives the title if it is still the
// placeholder. The session row is replaced in a single write so message
// content and updated_at can never go out of sync.
func (s *SessionService) AppendTurn(id, userContent, modelContent string) (*db.ChatSession, error) {
	session, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	session.Messages = append(session.Messages,
		db.Message{Role: db.RoleUser, Content: userContent},
		db.Message{Role: db.RoleModel, Content: modelContent},
	)
	session.UpdatedAt = time.Now()

	if session.Title == db.PlaceholderTitle {
		if title := deriveTitle(session.Messages); title != "" {
			session.Title = title
		}
	}

	if err := s.store.Put(session); err != nil {
		return nil, err
	}
	return session.Clone(), nil
}

// DeleteSession removes a session. The current session is protected.
func (s *SessionService) DeleteSession(id string) error {
	s.mu.Lock()
	current := s.currentID
	s.mu.Unlock()

	if id == current {
		return ErrSessionActive
	}
	return s.store.Delete(id)
}

// ClearSession empties a session's history without deleting the session.
func (s *SessionService) ClearSession(id string) (*db.ChatSession, error) {
	session, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	session.Messages = db.MessageList{}
	session.UpdatedAt = time.Now()
	if err := s.store.Put(session); err != nil {
		return nil, err
	}
	return session.Clone(), nil
}

// ListSessions returns all sessions, most recently active first. Two calls
// with no intervening mutation return the same order.
func (s *SessionService) ListSessions() ([]*db.ChatSession, error) {
	return s.store.List()
}

// CurrentSessionID returns the id of the current session, or "" when no
// session has been created or loaded yet.
func (s *SessionService) CurrentSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// CurrentSession returns the current session, creating one when none exists.
func (s *SessionService) CurrentSession() (*db.ChatSession, error) {
	s.mu.Lock()
	current := s.currentID
	s.mu.Unlock()

	if current == "" {
		return s.CreateSession()
	}
	session, err := s.store.Get(current)
	if errors.Is(err, db.ErrSessionNotFound) {
		// The session vanished underneath the pointer; start fresh.
		return s.CreateSession()
	}
	return session, err
}

// deriveTitle builds a session title from the first user message,
// truncated to 50 characters with a trailing ellipsis marker.
func deriveTitle(messages db.MessageList) string {
	for _, msg := range messages {
		if msg.Role != db.RoleUser {
			continue
		}
		runes := []rune(msg.Content)
		if len(runes) > titleMaxLen {
			return string(runes[:titleMaxLen]) + "..."
		}
		return msg.Content
	}
	return ""
}
