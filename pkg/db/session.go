// Database models for chat sessions
package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Message roles
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// PlaceholderTitle is the title a session carries until its first user
// message arrives.
const PlaceholderTitle = "New Chat"

// Message is one entry in a session's conversation history. Messages are
// immutable once appended; ordering is insertion order.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MessageList stores the full ordered history as a JSON column on the
// session row, so appending a turn is a single atomic row write.
type MessageList []Message

// Value implements driver.Valuer for database storage
func (m MessageList) Value() (driver.Value, error) {
	if m == nil {
		m = MessageList{}
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for database retrieval
func (m *MessageList) Scan(value interface{}) error {
	if value == nil {
		*m = MessageList{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported message list column type %T", value)
	}
	return json.Unmarshal(bytes, m)
}

// ChatSession represents one named conversation thread
type ChatSession struct {
	ID        string      `json:"id" gorm:"primaryKey;size:36"`
	Title     string      `json:"title" gorm:"size:200;default:'New Chat'"`
	Messages  MessageList `json:"messages" gorm:"type:text"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

// Clone returns a deep copy, used for read-only snapshots handed to callers.
func (s *ChatSession) Clone() *ChatSession {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Messages = make(MessageList, len(s.Messages))
	copy(cp.Messages, s.Messages)
	return &cp
}
