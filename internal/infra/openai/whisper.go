package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"voice-companion/internal/infra"
)

const (
	DefaultBaseURL            = "https://api.openai.com/v1"
	DefaultTranscriptionModel = "whisper-1"
)

type WhisperClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
	language   string
	retry      infra.RetryConfig
}

func NewWhisperClient(apiKey, model, language string) *WhisperClient {
	return NewWhisperClientWithURL(apiKey, model, language, DefaultBaseURL)
}

func NewWhisperClientWithURL(apiKey, model, language, baseURL string) *WhisperClient {
	if model == "" {
		model = DefaultTranscriptionModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &WhisperClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		model:      model,
		language:   language,
		retry:      infra.DefaultRetryConfig(),
	}
}

func (c *WhisperClient) WithRetry(cfg infra.RetryConfig) *WhisperClient {
	c.retry = cfg
	return c
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the WAV file at locator and returns the recognized text.
func (c *WhisperClient) Transcribe(ctx context.Context, locator string) (string, error) {
	audio, err := os.ReadFile(locator)
	if err != nil {
		return "", fmt.Errorf("reading recording: %w", err)
	}

	var result transcriptionResponse

	retryErr := infra.WithRetry(ctx, c.retry, func() error {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)

		part, err := writer.CreateFormFile("file", filepath.Base(locator))
		if err != nil {
			return fmt.Errorf("creating form file: %w", err)
		}

		if _, err = part.Write(audio); err != nil {
			return fmt.Errorf("writing audio: %w", err)
		}

		if err = writer.WriteField("model", c.model); err != nil {
			return fmt.Errorf("writing model field: %w", err)
		}

		if c.language != "" {
			if err = writer.WriteField("language", c.language); err != nil {
				return fmt.Errorf("writing language field: %w", err)
			}
		}

		if err = writer.Close(); err != nil {
			return fmt.Errorf("closing writer: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", body)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", writer.FormDataContentType())

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if err := infra.CheckStatus("whisper", resp); err != nil {
			return err
		}

		if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}

		return nil
	})

	if retryErr != nil {
		return "", retryErr
	}

	return result.Text, nil
}
