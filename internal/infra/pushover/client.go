package pushover

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"voice-companion/internal/domain"
)

const DefaultURL = "https://api.pushover.net/1/messages.json"

const sendTimeout = 10 * time.Second

// Client forwards conversation alerts as push notifications.
type Client struct {
	token      string
	userKey    string
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(token, userKey string, logger *slog.Logger) *Client {
	return NewClientWithURL(token, userKey, DefaultURL, logger)
}

func NewClientWithURL(token, userKey, endpoint string, logger *slog.Logger) *Client {
	return &Client{
		token:      token,
		userKey:    userKey,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: sendTimeout},
		logger:     logger,
	}
}

func (c *Client) Notify(ctx context.Context, message string) error {
	if c.token == "" || c.userKey == "" {
		return nil
	}

	data := url.Values{}
	data.Set("token", c.token)
	data.Set("user", c.userKey)
	data.Set("message", message)
	data.Set("title", "Voice Companion")

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.endpoint,
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pushover error: %s", resp.Status)
	}

	return nil
}

// StateChanged is ignored; only alerts are worth a notification.
func (c *Client) StateChanged(domain.View) {}

// Alert sends message in the background. Delivery failures are only logged.
func (c *Client) Alert(message string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := c.Notify(ctx, message); err != nil {
			c.logger.Warn("forwarding alert failed", "error", err)
		}
	}()
}
