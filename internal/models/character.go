package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Relationship defaults for a freshly created character.
const (
	DefaultRelationshipScore = 50
	DefaultStatusLabel       = "Neutral"
)

// BirthData holds the astrological birth details used to generate the
// character's personality. Stored as a JSON column.
type BirthData struct {
	Name   string `json:"name"`
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Day    int    `json:"day"`
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
	City   string `json:"city"`
	Nation string `json:"nation"`
}

// Value implements driver.Valuer for JSON storage
func (b BirthData) Value() (driver.Value, error) {
	return json.Marshal(b)
}

// Scan implements sql.Scanner for JSON storage
func (b *BirthData) Scan(value interface{}) error {
	if value == nil {
		*b = BirthData{}
		return nil
	}
	raw, ok := value.([]byte)
	if !ok {
		if s, isStr := value.(string); isStr {
			raw = []byte(s)
		} else {
			return fmt.Errorf("cannot scan %T into BirthData", value)
		}
	}
	return json.Unmarshal(raw, b)
}

// Age computes the character's age in whole years from the full birth date.
// It reports false for missing, invalid or future dates.
func (b BirthData) Age(now time.Time) (int, bool) {
	if b.Year <= 0 || b.Month < 1 || b.Month > 12 || b.Day < 1 || b.Day > 31 {
		return 0, false
	}
	birth := time.Date(b.Year, time.Month(b.Month), b.Day, 0, 0, 0, 0, time.UTC)
	if birth.After(now) {
		return 0, false
	}
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	if age < 0 {
		return 0, false
	}
	return age, true
}

// Character is an AI companion persona owned by a user. The relationship
// score and status label live on the character row so every session with the
// character shares the same relationship state.
type Character struct {
	ID                string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uint      `gorm:"index" json:"user_id"`
	Name              string    `gorm:"not null" json:"name"`
	Gender            string    `gorm:"default:male" json:"gender"`
	BirthData         BirthData `gorm:"type:jsonb" json:"birth_data"`
	SystemPrompt      string    `gorm:"type:text" json:"system_prompt,omitempty"`
	AvatarURL         string    `json:"avatar_url,omitempty"`
	RelationshipScore int       `gorm:"default:50" json:"relationship_score"`
	CurrentStatus     string    `gorm:"default:Neutral" json:"current_status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// BeforeCreate assigns a uuid and the relationship defaults
func (c *Character) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.RelationshipScore == 0 {
		c.RelationshipScore = DefaultRelationshipScore
	}
	if c.CurrentStatus == "" {
		c.CurrentStatus = DefaultStatusLabel
	}
	return nil
}

// CreateCharacterRequest is the request structure for creating a character
type CreateCharacterRequest struct {
	Name      string    `json:"name" binding:"required"`
	Gender    string    `json:"gender"`
	BirthData BirthData `json:"birth_data" binding:"required"`
	AvatarURL string    `json:"avatar_url"`
}
