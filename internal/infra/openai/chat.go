package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"voice-companion/internal/infra"
)

const DefaultChatModel = "gpt-4o-mini"

// ChatClient sends the persona and one user prompt to a chat-completion
// endpoint. Works with any OpenAI-compatible base URL.
type ChatClient struct {
	client  *goopenai.Client
	model   string
	persona string
	retry   infra.RetryConfig
}

func NewChatClient(apiKey, model, persona string) *ChatClient {
	return NewChatClientWithURL(apiKey, model, persona, "")
}

func NewChatClientWithURL(apiKey, model, persona, baseURL string) *ChatClient {
	if model == "" {
		model = DefaultChatModel
	}

	config := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	config.HTTPClient = &http.Client{Timeout: 60 * time.Second}

	return &ChatClient{
		client:  goopenai.NewClientWithConfig(config),
		model:   model,
		persona: persona,
		retry:   infra.DefaultRetryConfig(),
	}
}

func (c *ChatClient) WithRetry(cfg infra.RetryConfig) *ChatClient {
	c.retry = cfg
	return c
}

func (c *ChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: c.persona},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	}

	var resp goopenai.ChatCompletionResponse
	retryErr := infra.WithRetry(ctx, c.retry, func() error {
		var err error
		resp, err = c.client.CreateChatCompletion(ctx, req)
		if err == nil {
			return nil
		}

		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) && !infra.IsRetryableHTTPStatus(apiErr.HTTPStatusCode) {
			return &infra.PermanentError{Err: fmt.Errorf("chat completion API error %d: %w", apiErr.HTTPStatusCode, err)}
		}
		return fmt.Errorf("creating chat completion: %w", err)
	})

	if retryErr != nil {
		return "", retryErr
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from chat completion")
	}

	return resp.Choices[0].Message.Content, nil
}
