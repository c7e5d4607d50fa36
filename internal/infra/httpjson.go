package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// StatusError is a non-200 reply from a remote API.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Service, e.Code, e.Body)
}

// CheckStatus turns a non-200 reply into a StatusError. Statuses that a
// retry cannot fix come back wrapped in PermanentError.
func CheckStatus(service string, resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	err := &StatusError{Service: service, Code: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	if IsRetryableHTTPStatus(resp.StatusCode) {
		return err
	}
	return &PermanentError{Err: err}
}

// JSONCall is one JSON POST against a remote API.
type JSONCall struct {
	Service string
	URL     string
	Header  http.Header
	Body    any
}

// PostJSON sends call under the retry policy and decodes a 200 reply into out.
func PostJSON(ctx context.Context, client *http.Client, retry RetryConfig, call JSONCall, out any) error {
	payload, err := json.Marshal(call.Body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	return WithRetry(ctx, retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, call.URL, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		for k, vs := range call.Header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("sending %s request: %w", call.Service, err)
		}
		defer resp.Body.Close()

		if err := CheckStatus(call.Service, resp); err != nil {
			return err
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding %s response: %w", call.Service, err)
		}
		return nil
	})
}
