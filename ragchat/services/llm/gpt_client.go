package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"ragchat/ragchat/utils/httputils"
	"ragchat/ragchat/utils/logging"
)

// GPTClient talks to OpenAI or any OpenAI-compatible chat completions API.
type GPTClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewGPTClient(apiKey, baseURL string) *GPTClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &GPTClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 120 * time.Second},
	}
}

type gptChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type gptResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete executes a single GPT completion request (non-streaming)
func (c *GPTClient) Complete(ctx context.Context, model string, messages []Message) (string, error) {
	defer logging.LogDuration(ctx, "gpt_complete")()

	var parsed gptResponse
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	req := gptChatRequest{Model: model, Messages: messages}
	if err := httputils.PostJSON(ctx, c.http, c.baseURL+"/chat/completions", headers, req, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return parsed.Choices[0].Message.Content, nil
}
