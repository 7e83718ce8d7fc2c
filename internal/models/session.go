package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message roles stored in session history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single entry in a session's history
type ChatMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// History is the ordered transcript of a session, stored as a JSON column
type History []ChatMessage

// Value implements driver.Valuer for JSON storage
func (h History) Value() (driver.Value, error) {
	if h == nil {
		h = History{}
	}
	return json.Marshal(h)
}

// Scan implements sql.Scanner for JSON storage
func (h *History) Scan(value interface{}) error {
	if value == nil {
		*h = History{}
		return nil
	}
	raw, ok := value.([]byte)
	if !ok {
		if s, isStr := value.(string); isStr {
			raw = []byte(s)
		} else {
			return fmt.Errorf("cannot scan %T into History", value)
		}
	}
	return json.Unmarshal(raw, h)
}

// ChatSession is one chat thread between a user and a character
type ChatSession struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	CharacterID string    `gorm:"type:uuid;index" json:"character_id"`
	Title       string    `gorm:"default:New Chat" json:"title"`
	History     History   `gorm:"type:jsonb" json:"history"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate assigns a uuid
func (s *ChatSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// ChatRequest is the request structure for a chat exchange
type ChatRequest struct {
	CharacterID string `json:"character_id" binding:"required"`
	Message     string `json:"message" binding:"required"`
	SessionID   string `json:"session_id"`
}

// ChatResponse is the response structure for a chat exchange. Score, status
// and delta are opaque to clients; they render them as-is.
type ChatResponse struct {
	SessionID         string `json:"session_id"`
	CharacterID       string `json:"character_id"`
	UserMessage       string `json:"user_message"`
	AIResponse        string `json:"ai_response"`
	RelationshipScore int    `json:"relationship_score"`
	CurrentStatus     string `json:"current_status"`
	ScoreChange       int    `json:"score_change"`
	InternalThought   string `json:"internal_thought,omitempty"`
}
