package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ragchat/ragchat/utils/httputils"
	"ragchat/ragchat/utils/logging"
)

// ErrEmptyCompletion is returned when the model answered with no content.
var ErrEmptyCompletion = errors.New("no content in completion response")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer runs one non-streaming chat completion.
type Completer interface {
	Complete(ctx context.Context, model string, messages []Message) (string, error)
}

type OllamaClient struct {
	baseURL string
	http    *http.Client
}

func NewOllamaClient(baseURL string) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434/api"
	}
	return &OllamaClient{baseURL: baseURL, http: &http.Client{Timeout: 120 * time.Second}}
}

type ollamaChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type ollamaChatResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

func (c *OllamaClient) Complete(ctx context.Context, model string, messages []Message) (string, error) {
	defer logging.LogDuration(ctx, "ollama_complete")()
	var resp ollamaChatResponse
	req := ollamaChatRequest{Model: model, Messages: messages, Stream: false}
	if err := httputils.PostJSON(ctx, c.http, c.baseURL+"/chat", nil, req, &resp); err != nil {
		return "", err
	}
	if resp.Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Message.Content, nil
}
