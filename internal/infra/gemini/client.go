package gemini

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"voice-companion/internal/infra"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash"
)

type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
	persona    string
	retry      infra.RetryConfig
}

func NewClient(apiKey, model, persona string) *Client {
	return NewClientWithURL(apiKey, model, persona, DefaultBaseURL)
}

func NewClientWithURL(apiKey, model, persona, baseURL string) *Client {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		persona:    persona,
		retry:      infra.DefaultRetryConfig(),
	}
}

func (c *Client) WithRetry(cfg infra.RetryConfig) *Client {
	c.retry = cfg
	return c
}

type textPart struct {
	Text string `json:"text"`
}

type content struct {
	Role  string     `json:"role,omitempty"`
	Parts []textPart `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *content       `json:"systemInstruction,omitempty"`
	Contents          []content      `json:"contents"`
	GenerationConfig  map[string]any `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete calls generateContent with the persona as system instruction and
// joins the text parts of the first candidate.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))

	var reply generateResponse
	err := infra.PostJSON(ctx, c.httpClient, c.retry, infra.JSONCall{
		Service: "gemini",
		URL:     endpoint,
		Header:  http.Header{"x-goog-api-key": {c.apiKey}},
		Body: generateRequest{
			SystemInstruction: &content{Parts: []textPart{{Text: c.persona}}},
			Contents:          []content{{Role: "user", Parts: []textPart{{Text: prompt}}}},
			GenerationConfig: map[string]any{
				"maxOutputTokens": 512,
				"temperature":     0.7,
			},
		},
	}, &reply)
	if err != nil {
		return "", err
	}

	if reply.Error != nil {
		return "", fmt.Errorf("gemini error %d: %s", reply.Error.Code, reply.Error.Message)
	}
	if len(reply.Candidates) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	var text strings.Builder
	for _, p := range reply.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", fmt.Errorf("empty response from gemini")
	}
	return out, nil
}
