package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"astro-soulmate/backend/internal/models"
	"astro-soulmate/backend/pkg/logger"
	"astro-soulmate/backend/pkg/resilience"
)

// RemoteResponder calls the external model service over HTTP. Failures trip
// a circuit breaker so a dead model service degrades fast instead of tying
// up every chat request for the full timeout.
type RemoteResponder struct {
	client  *http.Client
	baseURL string
	apiKey  string
	breaker *resilience.CircuitBreaker
	log     *logger.Logger
}

// NewRemoteResponder creates a responder for the model service at baseURL.
// apiKey may be empty when the service is unauthenticated.
func NewRemoteResponder(baseURL, apiKey string, log *logger.Logger) *RemoteResponder {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &RemoteResponder{
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
		breaker: resilience.NewCircuitBreaker(resilience.DefaultConfig("model-service"), log),
		log:     log,
	}
}

type generateRequest struct {
	CharacterName string               `json:"character_name"`
	Gender        string               `json:"gender"`
	SystemPrompt  string               `json:"system_prompt"`
	Age           *int                 `json:"age,omitempty"`
	Score         int                  `json:"relationship_score"`
	History       []models.ChatMessage `json:"history"`
	Message       string               `json:"message"`
}

type generateResponse struct {
	Reply
	Error string `json:"error,omitempty"`
}

// Generate sends the prompt to the model service and decodes the reply.
func (r *RemoteResponder) Generate(ctx context.Context, prompt Prompt) (*Reply, error) {
	if prompt.Message == "" {
		return nil, errors.New("empty message")
	}

	req := generateRequest{
		CharacterName: prompt.CharacterName,
		Gender:        prompt.Gender,
		SystemPrompt:  prompt.SystemPrompt,
		Score:         prompt.Score,
		History:       recentHistory(prompt.History),
		Message:       prompt.Message,
	}
	if prompt.HasAge {
		age := prompt.Age
		req.Age = &age
	}

	var reply *Reply
	err := r.breaker.Execute(func() error {
		var execErr error
		reply, execErr = r.generate(ctx, req)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

func (r *RemoteResponder) generate(ctx context.Context, req generateRequest) (*Reply, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	httpResp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model service returned status %d", httpResp.StatusCode)
	}

	var resp generateResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	if resp.Text == "" {
		return nil, errors.New("model service returned an empty reply")
	}
	return &resp.Reply, nil
}
