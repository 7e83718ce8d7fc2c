package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"astro-soulmate/backend/internal/chatview"
	"astro-soulmate/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/login", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"user":  models.UserResponse{ID: 3, Email: "me@example.com"},
			"token": "issued-token",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	user, err := c.Login(context.Background(), "me@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, uint(3), user.ID)
	assert.Equal(t, "issued-token", c.Token())
}

func TestLogoutDropsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/logout", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{"message": "Logged out successfully"})
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("tok"))
	require.NoError(t, c.Logout(context.Background()))
	assert.Empty(t, c.Token())
}

func TestSendMessageMapsExchangeResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/chat", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req models.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "char-1", req.CharacterID)
		assert.Equal(t, "hello", req.Message)

		json.NewEncoder(w).Encode(models.ChatResponse{
			SessionID:         "sess-1",
			CharacterID:       "char-1",
			AIResponse:        "hey there",
			RelationshipScore: 53,
			CurrentStatus:     "Curious",
			ScoreChange:       3,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("tok"))
	res, err := c.SendMessage(context.Background(), "char-1", "", "hello")
	require.NoError(t, err)
	assert.Equal(t, &chatview.ExchangeResult{
		SessionID:   "sess-1",
		ReplyText:   "hey there",
		Score:       53,
		StatusLabel: "Curious",
		ScoreChange: 3,
	}, res)
}

func TestFetchHistoryDecodesTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/sessions/sess-1", r.URL.Path)
		json.NewEncoder(w).Encode(models.ChatSession{
			ID: "sess-1",
			History: models.History{
				{Role: models.RoleUser, Content: "hello", Timestamp: "2025-06-01T10:00:00Z"},
				{Role: models.RoleAssistant, Content: "hey there", Timestamp: "2025-06-01T10:00:00Z"},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("tok"))
	history, err := c.FetchHistory(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, chatview.RoleUser, history[0].Role)
	assert.Equal(t, "hey there", history[1].Content)
}

func TestAPIErrorSurfacesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Character not found"})
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("tok"))
	_, err := c.GetCharacter(context.Background(), "nope")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Character not found", apiErr.Message)
}
