package db

import (
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *GormSessionStore {
	t.Helper()
	gdb, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return NewSessionStore(gdb)
}

func TestSessionStore_PutGetRoundTrip(t *testing.T) {
	store := newTestStore(t)

	session := &ChatSession{
		ID:    "s-1",
		Title: PlaceholderTitle,
		Messages: MessageList{
			{Role: RoleUser, Content: "hei"},
			{Role: RoleModel, Content: "hei på deg"},
		},
	}
	if err := store.Put(session); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get("s-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != PlaceholderTitle {
		t.Fatalf("Title = %q, want %q", got.Title, PlaceholderTitle)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(got.Messages))
	}
	if got.Messages[1].Role != RoleModel || got.Messages[1].Content != "hei på deg" {
		t.Fatalf("Messages[1] = %+v", got.Messages[1])
	}
}

func TestSessionStore_PutReplacesWholeRecord(t *testing.T) {
	store := newTestStore(t)

	session := &ChatSession{ID: "s-1", Title: PlaceholderTitle, Messages: MessageList{}}
	if err := store.Put(session); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	session.Title = "Ukesplan"
	session.Messages = MessageList{{Role: RoleUser, Content: "plan"}}
	if err := store.Put(session); err != nil {
		t.Fatalf("Put() replace error = %v", err)
	}

	got, err := store.Get("s-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "Ukesplan" || len(got.Messages) != 1 {
		t.Fatalf("Get() = %+v, want replaced record", got)
	}
}

func TestSessionStore_GetNotFound(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Get() error = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionStore_Delete(t *testing.T) {
	store := newTestStore(t)

	if err := store.Put(&ChatSession{ID: "s-1", Messages: MessageList{}}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Delete("s-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get("s-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Get() after delete error = %v, want ErrSessionNotFound", err)
	}
	if err := store.Delete("s-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Delete() again error = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionStore_ListOrdering(t *testing.T) {
	store := newTestStore(t)

	for _, id := range []string{"s-1", "s-2", "s-3"} {
		if err := store.Put(&ChatSession{ID: id, Messages: MessageList{}}); err != nil {
			t.Fatalf("Put(%s) error = %v", id, err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Touch the oldest so it becomes the most recently updated.
	first, err := store.Get("s-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	first.Messages = MessageList{{Role: RoleUser, Content: "hei"}}
	if err := store.Put(first); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	list, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len(list) = %d, want 3", len(list))
	}
	if list[0].ID != "s-1" {
		t.Fatalf("list[0].ID = %q, want most recently updated s-1", list[0].ID)
	}

	again, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	for i := range list {
		if list[i].ID != again[i].ID {
			t.Fatalf("order changed between calls at index %d", i)
		}
	}
}
