package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"voice-companion/internal/infra"
)

const (
	DefaultBaseURL = "https://api.anthropic.com/v1"
	DefaultModel   = "claude-sonnet-4-20250514"

	apiVersion = "2023-06-01"
	maxTokens  = 512
)

// ClaudeClient answers a prompt through the Messages API with the persona
// as the system prompt.
type ClaudeClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
	persona    string
	retry      infra.RetryConfig
}

func NewClaudeClient(apiKey, model, persona string) *ClaudeClient {
	return NewClaudeClientWithURL(apiKey, model, persona, DefaultBaseURL)
}

func NewClaudeClientWithURL(apiKey, model, persona, baseURL string) *ClaudeClient {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &ClaudeClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		persona:    persona,
		retry:      infra.DefaultRetryConfig(),
	}
}

func (c *ClaudeClient) WithRetry(cfg infra.RetryConfig) *ClaudeClient {
	c.retry = cfg
	return c
}

type turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	System    string `json:"system"`
	Messages  []turn `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (c *ClaudeClient) Complete(ctx context.Context, prompt string) (string, error) {
	var reply messagesResponse
	err := infra.PostJSON(ctx, c.httpClient, c.retry, infra.JSONCall{
		Service: "claude",
		URL:     c.baseURL + "/messages",
		Header: http.Header{
			"x-api-key":         {c.apiKey},
			"anthropic-version": {apiVersion},
		},
		Body: messagesRequest{
			Model:     c.model,
			MaxTokens: maxTokens,
			System:    c.persona,
			Messages:  []turn{{Role: "user", Content: prompt}},
		},
	}, &reply)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range reply.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", fmt.Errorf("empty response from claude")
	}
	return out, nil
}
