package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"careerhub-backend/errors"
)

const (
	defaultChatEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultChatModel    = "gpt-4.1-mini"
)

type ChatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model     string                  `json:"model"`
	Messages  []ChatCompletionMessage `json:"messages"`
	MaxTokens int                     `json:"max_tokens,omitempty"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message ChatCompletionMessage `json:"message"`
	} `json:"choices"`
}

// ChatCompletions talks to any OpenAI-compatible /chat/completions endpoint.
type ChatCompletions struct {
	endpoint  string
	apiKey    string
	model     string
	MaxTokens int
	Client    *http.Client
}

func NewChatCompletions(endpoint, apiKey, model string) (*ChatCompletions, error) {
	if apiKey == "" {
		return nil, errors.New("chat completions: API key is required")
	}
	if endpoint == "" {
		endpoint = defaultChatEndpoint
	}
	if model == "" {
		model = defaultChatModel
	}
	return &ChatCompletions{
		endpoint:  endpoint,
		apiKey:    apiKey,
		model:     model,
		MaxTokens: 1200,
		Client:    &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (c *ChatCompletions) Complete(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, ChatCompletionMessage{Role: "system", Content: system})
	}
	messages = append(messages, ChatCompletionMessage{Role: "user", Content: prompt})

	jsonData, err := json.Marshal(ChatCompletionRequest{Model: c.model, Messages: messages, MaxTokens: c.MaxTokens})
	if err != nil {
		return "", errors.Wrap(err, "failed to serialize request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(err, "failed to read response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Newf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var completion ChatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", errors.Wrap(err, "failed to decode API response")
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("no choices in API response")
	}
	return completion.Choices[0].Message.Content, nil
}
