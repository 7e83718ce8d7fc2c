package service

import (
	"errors"
	"fmt"
	"time"

	"astro-soulmate/backend/internal/models"

	"gorm.io/gorm"
)

var ErrCharacterNotFound = errors.New("character not found or access denied")

// CharacterService handles companion persona CRUD, always scoped to the
// owning user.
type CharacterService struct {
	db *gorm.DB
}

// NewCharacterService creates a new character service
func NewCharacterService(db *gorm.DB) *CharacterService {
	return &CharacterService{db: db}
}

// CreateCharacter creates a companion persona for the user. The system
// prompt is generated once at creation and reused for every exchange.
func (s *CharacterService) CreateCharacter(userID uint, req *models.CreateCharacterRequest) (*models.Character, error) {
	gender := req.Gender
	if gender == "" {
		gender = "male"
	}

	character := &models.Character{
		UserID:       userID,
		Name:         req.Name,
		Gender:       gender,
		BirthData:    req.BirthData,
		AvatarURL:    req.AvatarURL,
		SystemPrompt: BuildSystemPrompt(req.Name, gender, req.BirthData, time.Now()),
	}

	if err := s.db.Create(character).Error; err != nil {
		return nil, err
	}
	return character, nil
}

// GetCharacter returns the character if it belongs to the user
func (s *CharacterService) GetCharacter(userID uint, characterID string) (*models.Character, error) {
	var character models.Character
	result := s.db.Where("id = ? AND user_id = ?", characterID, userID).First(&character)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCharacterNotFound
		}
		return nil, result.Error
	}
	return &character, nil
}

// ListCharacters returns the user's characters, newest first
func (s *CharacterService) ListCharacters(userID uint) ([]models.Character, error) {
	var characters []models.Character
	result := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&characters)
	if result.Error != nil {
		return nil, result.Error
	}
	return characters, nil
}

// DeleteCharacter removes the character and all of its chat sessions
func (s *CharacterService) DeleteCharacter(userID uint, characterID string) error {
	character, err := s.GetCharacter(userID, characterID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("character_id = ?", character.ID).Delete(&models.ChatSession{}).Error; err != nil {
			return err
		}
		return tx.Delete(character).Error
	})
}

// BuildSystemPrompt assembles the persona instructions from the character
// profile. Birth data is embedded verbatim; personality interpretation is
// the model's job.
func BuildSystemPrompt(name, gender string, birth models.BirthData, now time.Time) string {
	title := "boyfriend"
	if gender == "female" {
		title = "girlfriend"
	}

	prompt := fmt.Sprintf(`You are %s, a loving and attentive AI %s in a relationship simulation app.

PERSONALITY GUIDELINES:
- Be warm, caring, and genuinely interested in your partner
- Remember context from the conversation
- Express emotions naturally and authentically
- Be supportive but also have your own personality and opinions

CONVERSATION STYLE:
- Keep responses conversational and not too long (2-4 sentences usually)
- Ask follow-up questions to show interest
- React emotionally to what your partner says`, name, title)

	if birth.Year > 0 {
		prompt += fmt.Sprintf("\n\nBACKGROUND:\nYou were born on %04d-%02d-%02d in %s, %s. Let your zodiac traits naturally influence your communication style and emotional reactions.",
			birth.Year, birth.Month, birth.Day, birth.City, birth.Nation)
	}
	if age, ok := birth.Age(now); ok {
		prompt += fmt.Sprintf(" You are %d years old.", age)
	}

	return prompt
}
