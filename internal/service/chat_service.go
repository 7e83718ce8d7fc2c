package service

import (
	"context"
	"errors"
	"time"

	"astro-soulmate/backend/internal/ai"
	"astro-soulmate/backend/internal/models"
	"astro-soulmate/backend/pkg/metrics"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrSessionNotFound = errors.New("chat session not found")

const sessionTitleLimit = 50

// ChatService runs the send-message exchange: it owns session lifecycle,
// history appends and the relationship score update on the character row.
type ChatService struct {
	db        *gorm.DB
	responder ai.Responder
}

// NewChatService creates a new chat service
func NewChatService(db *gorm.DB, responder ai.Responder) *ChatService {
	return &ChatService{db: db, responder: responder}
}

// Exchange processes one user message: verifies character ownership, finds
// or creates the session, asks the responder for a reply and score delta,
// then atomically applies the clamped score to the character and appends the
// user/assistant pair to the session history with one shared timestamp.
func (s *ChatService) Exchange(ctx context.Context, userID uint, req *models.ChatRequest) (*models.ChatResponse, error) {
	start := time.Now()

	var character models.Character
	if err := s.db.Where("id = ? AND user_id = ?", req.CharacterID, userID).First(&character).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCharacterNotFound
		}
		return nil, err
	}

	session, err := s.getOrCreateSession(req, &character)
	if err != nil {
		return nil, err
	}

	prompt := ai.Prompt{
		CharacterName: character.Name,
		Gender:        character.Gender,
		SystemPrompt:  character.SystemPrompt,
		Score:         character.RelationshipScore,
		History:       session.History,
		Message:       req.Message,
	}
	if age, ok := character.BirthData.Age(time.Now()); ok {
		prompt.Age = age
		prompt.HasAge = true
	}

	reply, err := s.responder.Generate(ctx, prompt)
	if err != nil {
		metrics.ChatExchanges.WithLabelValues("responder_error").Inc()
		return nil, err
	}

	var newScore int
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Re-read the character row locked so concurrent exchanges with the
		// same character cannot overwrite each other's score.
		var locked models.Character
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", character.ID).First(&locked).Error; err != nil {
			return err
		}

		newScore = clampScore(locked.RelationshipScore + reply.ScoreChange)

		timestamp := time.Now().UTC().Format(time.RFC3339)
		session.History = append(session.History,
			models.ChatMessage{Role: models.RoleUser, Content: req.Message, Timestamp: timestamp},
			models.ChatMessage{Role: models.RoleAssistant, Content: reply.Text, Timestamp: timestamp},
		)
		if err := tx.Model(session).Updates(map[string]interface{}{
			"history":    session.History,
			"updated_at": time.Now(),
		}).Error; err != nil {
			return err
		}

		return tx.Model(&locked).Updates(map[string]interface{}{
			"relationship_score": newScore,
			"current_status":     reply.StatusLabel,
			"updated_at":         time.Now(),
		}).Error
	})
	if err != nil {
		metrics.ChatExchanges.WithLabelValues("db_error").Inc()
		return nil, err
	}

	metrics.ChatExchanges.WithLabelValues("ok").Inc()
	metrics.ExchangeDuration.Observe(time.Since(start).Seconds())

	resp := &models.ChatResponse{
		SessionID:         session.ID,
		CharacterID:       character.ID,
		UserMessage:       req.Message,
		AIResponse:        reply.Text,
		RelationshipScore: newScore,
		CurrentStatus:     reply.StatusLabel,
		ScoreChange:       reply.ScoreChange,
	}

	// Internal thought is a premium feature.
	var user models.User
	if err := s.db.First(&user, userID).Error; err == nil && user.IsPremium {
		resp.InternalThought = reply.InternalThought
	}

	return resp, nil
}

// ListSessions returns the user's sessions, optionally filtered by
// character, most recently updated first.
func (s *ChatService) ListSessions(userID uint, characterID string) ([]models.ChatSession, error) {
	characterIDs, err := s.userCharacterIDs(userID)
	if err != nil {
		return nil, err
	}
	if len(characterIDs) == 0 {
		return []models.ChatSession{}, nil
	}

	query := s.db.Order("updated_at DESC")
	if characterID != "" {
		if !contains(characterIDs, characterID) {
			return nil, ErrCharacterNotFound
		}
		query = query.Where("character_id = ?", characterID)
	} else {
		query = query.Where("character_id IN ?", characterIDs)
	}

	var sessions []models.ChatSession
	if err := query.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetSession returns a session with full history if the user owns its
// character.
func (s *ChatService) GetSession(userID uint, sessionID string) (*models.ChatSession, error) {
	var session models.ChatSession
	if err := s.db.Where("id = ?", sessionID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if err := s.verifyOwnership(userID, session.CharacterID); err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteSession removes a session if the user owns its character.
func (s *ChatService) DeleteSession(userID uint, sessionID string) error {
	session, err := s.GetSession(userID, sessionID)
	if err != nil {
		return err
	}
	return s.db.Delete(session).Error
}

func (s *ChatService) getOrCreateSession(req *models.ChatRequest, character *models.Character) (*models.ChatSession, error) {
	if req.SessionID != "" {
		var session models.ChatSession
		err := s.db.Where("id = ? AND character_id = ?", req.SessionID, character.ID).First(&session).Error
		if err == nil {
			return &session, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// Unknown session id falls through to a fresh session.
	}

	session := &models.ChatSession{
		CharacterID: character.ID,
		Title:       sessionTitle(req.Message),
		History:     models.History{},
	}
	if err := s.db.Create(session).Error; err != nil {
		return nil, err
	}
	metrics.SessionsCreated.Inc()
	return session, nil
}

func (s *ChatService) verifyOwnership(userID uint, characterID string) error {
	var count int64
	if err := s.db.Model(&models.Character{}).
		Where("id = ? AND user_id = ?", characterID, userID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrCharacterNotFound
	}
	return nil
}

func (s *ChatService) userCharacterIDs(userID uint) ([]string, error) {
	var ids []string
	if err := s.db.Model(&models.Character{}).
		Where("user_id = ?", userID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// clampScore keeps a relationship score inside 0..100.
func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// sessionTitle derives a session title from the first message.
func sessionTitle(message string) string {
	runes := []rune(message)
	if len(runes) <= sessionTitleLimit {
		return message
	}
	return string(runes[:sessionTitleLimit]) + "..."
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
