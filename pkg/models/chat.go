// API types for sessions and chat turns
package models

import (
	"time"

	"github.com/matprat/matprat/pkg/db"
)

// ========== Type aliases for database types ==========
// These allow other packages to use models.Message instead of db.Message

type Message = db.Message
type MessageList = db.MessageList
type ChatSession = db.ChatSession

// Message role constants
const (
	RoleUser  = db.RoleUser
	RoleModel = db.RoleModel
)

// ========== API request/response types ==========

// SendMessageRequest carries one user turn
type SendMessageRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message" binding:"required"`
}

// TurnResponse returns the appended pair after a completed turn
type TurnResponse struct {
	SessionID    string  `json:"session_id"`
	UserMessage  Message `json:"user_message"`
	ModelMessage Message `json:"model_message"`
}

// SessionSummary is the list-view shape of a session
type SessionSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Current      bool      `json:"current"`
}

// NewSessionSummary builds a summary from a full session record
func NewSessionSummary(s *ChatSession, currentID string) SessionSummary {
	return SessionSummary{
		ID:           s.ID,
		Title:        s.Title,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		MessageCount: len(s.Messages),
		Current:      s.ID == currentID,
	}
}

// MealPreferences is the structured opening form. Its fields become the
// first user message of a session.
type MealPreferences struct {
	DietType    string   `json:"diet_type"`
	Allergies   []string `json:"allergies"`
	Likes       string   `json:"likes"`
	Dislikes    string   `json:"dislikes"`
	Budget      int      `json:"budget" binding:"required"`
	Equipment   string   `json:"equipment"`
	CookTime    int      `json:"cook_time"`
	MealsPerDay int      `json:"meals_per_day"`
	Portions    int      `json:"portions"`
}
