package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matprat/matprat/pkg/db"
)

func newTestSessionService() *SessionService {
	return NewSessionService(NewMemorySessionStore())
}

func TestCreateSession_UniqueIDs(t *testing.T) {
	s := newTestSessionService()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		session, err := s.CreateSession()
		if err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
		if seen[session.ID] {
			t.Fatalf("CreateSession() returned duplicate id %q", session.ID)
		}
		seen[session.ID] = true
	}
}

func TestCreateSession_SetsCurrentAndPlaceholder(t *testing.T) {
	s := newTestSessionService()

	session, err := s.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if got := s.CurrentSessionID(); got != session.ID {
		t.Fatalf("CurrentSessionID() = %q, want %q", got, session.ID)
	}
	if session.Title != db.PlaceholderTitle {
		t.Fatalf("Title = %q, want %q", session.Title, db.PlaceholderTitle)
	}
	if len(session.Messages) != 0 {
		t.Fatalf("new session has %d messages, want 0", len(session.Messages))
	}
}

func TestLoadSession_SetsCurrent(t *testing.T) {
	s := newTestSessionService()

	first, _ := s.CreateSession()
	second, _ := s.CreateSession()
	if got := s.CurrentSessionID(); got != second.ID {
		t.Fatalf("CurrentSessionID() = %q, want %q", got, second.ID)
	}

	if _, err := s.LoadSession(first.ID); err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if got := s.CurrentSessionID(); got != first.ID {
		t.Fatalf("CurrentSessionID() after load = %q, want %q", got, first.ID)
	}
}

func TestLoadSession_NotFound(t *testing.T) {
	s := newTestSessionService()

	if _, err := s.LoadSession("no-such-id"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("LoadSession() error = %v, want ErrSessionNotFound", err)
	}
	if _, err := s.LoadSession(""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("LoadSession(\"\") error = %v, want ErrSessionNotFound", err)
	}
}

func TestDeleteSession_CurrentProtected(t *testing.T) {
	s := newTestSessionService()

	session, _ := s.CreateSession()
	if err := s.DeleteSession(session.ID); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("DeleteSession(current) error = %v, want ErrSessionActive", err)
	}
	// Still present.
	if _, err := s.LoadSession(session.ID); err != nil {
		t.Fatalf("LoadSession() after protected delete error = %v", err)
	}
}

func TestDeleteSession_RemovesNonCurrent(t *testing.T) {
	s := newTestSessionService()

	old, _ := s.CreateSession()
	s.CreateSession()

	if err := s.DeleteSession(old.ID); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := s.LoadSession(old.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("LoadSession(deleted) error = %v, want ErrSessionNotFound", err)
	}
}

func TestDeleteSession_NotFound(t *testing.T) {
	s := newTestSessionService()
	s.CreateSession()

	if err := s.DeleteSession("no-such-id"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("DeleteSession() error = %v, want ErrSessionNotFound", err)
	}
}

func TestAppendTurn_RoundTrip(t *testing.T) {
	s := newTestSessionService()
	session, _ := s.CreateSession()

	if _, err := s.AppendTurn(session.ID, "budsjett 300 kr", "Her er et forslag"); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}

	loaded, err := s.LoadSession(session.ID)
	if err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	n := len(loaded.Messages)
	if n != 2 {
		t.Fatalf("len(Messages) = %d, want 2", n)
	}
	if loaded.Messages[n-2].Role != db.RoleUser || loaded.Messages[n-2].Content != "budsjett 300 kr" {
		t.Fatalf("user message = %+v", loaded.Messages[n-2])
	}
	if loaded.Messages[n-1].Role != db.RoleModel || loaded.Messages[n-1].Content != "Her er et forslag" {
		t.Fatalf("model message = %+v", loaded.Messages[n-1])
	}
	if loaded.UpdatedAt.Before(loaded.CreatedAt) {
		t.Fatalf("UpdatedAt %v before CreatedAt %v", loaded.UpdatedAt, loaded.CreatedAt)
	}
}

func TestAppendTurn_NotFound(t *testing.T) {
	s := newTestSessionService()

	if _, err := s.AppendTurn("no-such-id", "hei", "hei"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("AppendTurn() error = %v, want ErrSessionNotFound", err)
	}
}

func TestAppendTurn_DerivesTitleOnce(t *testing.T) {
	s := newTestSessionService()
	session, _ := s.CreateSession()

	updated, err := s.AppendTurn(session.ID, "Lag en plan for uken", "Gjerne!")
	if err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}
	if updated.Title != "Lag en plan for uken" {
		t.Fatalf("Title = %q, want first user message", updated.Title)
	}

	// Later turns never change the title.
	updated, _ = s.AppendTurn(session.ID, "Noe helt annet", "Ok")
	updated, _ = s.AppendTurn(session.ID, "Og en tredje melding", "Ok")
	if updated.Title != "Lag en plan for uken" {
		t.Fatalf("Title after more turns = %q, want unchanged", updated.Title)
	}
}

func TestAppendTurn_TruncatesLongTitle(t *testing.T) {
	s := newTestSessionService()
	session, _ := s.CreateSession()

	long := strings.Repeat("å", 60)
	updated, err := s.AppendTurn(session.ID, long, "Ok")
	if err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}
	want := strings.Repeat("å", 50) + "..."
	if updated.Title != want {
		t.Fatalf("Title = %q, want %q", updated.Title, want)
	}
}

func TestClearSession_EmptiesHistory(t *testing.T) {
	s := newTestSessionService()
	session, _ := s.CreateSession()
	s.AppendTurn(session.ID, "hei", "hei på deg")

	cleared, err := s.ClearSession(session.ID)
	if err != nil {
		t.Fatalf("ClearSession() error = %v", err)
	}
	if len(cleared.Messages) != 0 {
		t.Fatalf("len(Messages) after clear = %d, want 0", len(cleared.Messages))
	}
}

func TestListSessions_OrderAndStability(t *testing.T) {
	s := newTestSessionService()

	first, _ := s.CreateSession()
	time.Sleep(5 * time.Millisecond)
	s.CreateSession()
	time.Sleep(5 * time.Millisecond)

	// Touching the oldest session moves it to the front.
	if _, err := s.AppendTurn(first.ID, "hei", "hei"); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}

	list, err := s.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(list) = %d, want 2", len(list))
	}
	if list[0].ID != first.ID {
		t.Fatalf("list[0].ID = %q, want most recently updated %q", list[0].ID, first.ID)
	}

	// Two calls without mutation return identical order.
	again, err := s.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	for i := range list {
		if list[i].ID != again[i].ID {
			t.Fatalf("order changed between calls: %q vs %q at index %d", list[i].ID, again[i].ID, i)
		}
	}
}

func TestCurrentSession_CreatesWhenNoneExists(t *testing.T) {
	s := newTestSessionService()

	session, err := s.CurrentSession()
	if err != nil {
		t.Fatalf("CurrentSession() error = %v", err)
	}
	if session.ID == "" {
		t.Fatalf("expected a created session")
	}
	if got := s.CurrentSessionID(); got != session.ID {
		t.Fatalf("CurrentSessionID() = %q, want %q", got, session.ID)
	}

	// Subsequent calls return the same session.
	same, err := s.CurrentSession()
	if err != nil {
		t.Fatalf("CurrentSession() error = %v", err)
	}
	if same.ID != session.ID {
		t.Fatalf("CurrentSession() id = %q, want %q", same.ID, session.ID)
	}
}
