package api

import (
	"errors"
	"net/http"

	"astro-soulmate/backend/internal/models"
	"astro-soulmate/backend/internal/service"
	"astro-soulmate/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// CharacterHandler handles companion character requests
type CharacterHandler struct {
	service *service.CharacterService
}

// NewCharacterHandler creates a new character handler
func NewCharacterHandler(service *service.CharacterService) *CharacterHandler {
	return &CharacterHandler{service: service}
}

// CreateCharacter creates a companion for the authenticated user
func (h *CharacterHandler) CreateCharacter(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.CreateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	character, err := h.service.CreateCharacter(userID, &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create character"})
		return
	}

	c.JSON(http.StatusCreated, character)
}

// GetCharacter returns one of the user's companions
func (h *CharacterHandler) GetCharacter(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	character, err := h.service.GetCharacter(userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrCharacterNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Character not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve character"})
		return
	}

	c.JSON(http.StatusOK, character)
}

// ListCharacters returns all of the user's companions
func (h *CharacterHandler) ListCharacters(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	characters, err := h.service.ListCharacters(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list characters"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"characters": characters})
}

// DeleteCharacter removes a companion and its chat sessions
func (h *CharacterHandler) DeleteCharacter(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	if err := h.service.DeleteCharacter(userID, c.Param("id")); err != nil {
		if errors.Is(err, service.ErrCharacterNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Character not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete character"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
