// Package client is a small HTTP SDK for the backend API, built for the
// terminal client in cmd/chat: it speaks the wire format of the handlers and
// returns the view-layer types the chat controller consumes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"astro-soulmate/backend/internal/chatview"
	"astro-soulmate/backend/internal/models"
)

// Client talks to the backend API. The zero value is not usable, create
// one with New. Safe for concurrent use once authenticated.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets a previously issued auth token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current auth token, empty until Login or Signup.
func (c *Client) Token() string {
	return c.token
}

type authResponse struct {
	User  models.UserResponse `json:"user"`
	Token string              `json:"token"`
}

// Signup registers a new account and stores the issued token.
func (c *Client) Signup(ctx context.Context, email, password string) (*models.UserResponse, error) {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp.User, nil
}

// Login authenticates and stores the issued token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.UserResponse, error) {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp.User, nil
}

// Logout tells the server the session is over and drops the stored token.
// Revocation is client-side with bearer JWTs; the call is best-effort.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
	c.token = ""
	return err
}

// CreateCharacter creates a companion character.
func (c *Client) CreateCharacter(ctx context.Context, req *models.CreateCharacterRequest) (*models.Character, error) {
	var character models.Character
	if err := c.do(ctx, http.MethodPost, "/api/v1/characters", req, &character); err != nil {
		return nil, err
	}
	return &character, nil
}

// ListCharacters returns the user's companions.
func (c *Client) ListCharacters(ctx context.Context) ([]models.Character, error) {
	var resp struct {
		Characters []models.Character `json:"characters"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/characters", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Characters, nil
}

// GetCharacter returns one companion by id.
func (c *Client) GetCharacter(ctx context.Context, characterID string) (*models.Character, error) {
	var character models.Character
	if err := c.do(ctx, http.MethodGet, "/api/v1/characters/"+url.PathEscape(characterID), nil, &character); err != nil {
		return nil, err
	}
	return &character, nil
}

// DeleteCharacter removes a companion and its sessions.
func (c *Client) DeleteCharacter(ctx context.Context, characterID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/characters/"+url.PathEscape(characterID), nil, nil)
}

// SendMessage runs one exchange. An empty sessionID starts a new session.
func (c *Client) SendMessage(ctx context.Context, characterID, sessionID, text string) (*chatview.ExchangeResult, error) {
	var resp models.ChatResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/chat", &models.ChatRequest{
		CharacterID: characterID,
		Message:     text,
		SessionID:   sessionID,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &chatview.ExchangeResult{
		SessionID:   resp.SessionID,
		ReplyText:   resp.AIResponse,
		Score:       resp.RelationshipScore,
		StatusLabel: resp.CurrentStatus,
		ScoreChange: resp.ScoreChange,
	}, nil
}

// FetchHistory returns the authoritative transcript of a session, oldest
// first, in the shape the chat view consumes.
func (c *Client) FetchHistory(ctx context.Context, sessionID string) ([]chatview.Message, error) {
	var session models.ChatSession
	if err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+url.PathEscape(sessionID), nil, &session); err != nil {
		return nil, err
	}
	history := make([]chatview.Message, 0, len(session.History))
	for _, msg := range session.History {
		history = append(history, chatview.Message{
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		})
	}
	return history, nil
}

// ListSessions returns the user's sessions, optionally for one character.
func (c *Client) ListSessions(ctx context.Context, characterID string) ([]models.ChatSession, error) {
	path := "/api/v1/sessions"
	if characterID != "" {
		path += "?character_id=" + url.QueryEscape(characterID)
	}
	var resp struct {
		Sessions []models.ChatSession `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// DeleteSession removes a session.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/sessions/"+url.PathEscape(sessionID), nil, nil)
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &errBody) != nil || errBody.Error == "" {
			errBody.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
