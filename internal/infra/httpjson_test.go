package infra_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"voice-companion/internal/infra"
)

func TestPostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("Content-Type") != "application/json" || r.Header.Get("X-Api-Key") != "k" {
			http.Error(w, "headers", http.StatusBadRequest)
			return
		}
		var in map[string]string
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"echo": in["say"]})
	}))
	defer server.Close()

	var out struct {
		Echo string `json:"echo"`
	}
	err := infra.PostJSON(context.Background(), server.Client(), infra.DefaultRetryConfig(), infra.JSONCall{
		Service: "test",
		URL:     server.URL,
		Header:  http.Header{"x-api-key": {"k"}},
		Body:    map[string]string{"say": "hi"},
	}, &out)
	if err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	if out.Echo != "hi" {
		t.Errorf("echo: got %q", out.Echo)
	}
}

func TestPostJSON_StatusHandling(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int
	}{
		{"client error is not retried", http.StatusBadRequest, 1},
		{"server error is retried", http.StatusServiceUnavailable, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			cfg := infra.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}
			var out map[string]any
			err := infra.PostJSON(context.Background(), server.Client(), cfg, infra.JSONCall{
				Service: "test",
				URL:     server.URL,
				Body:    map[string]string{},
			}, &out)

			var statusErr *infra.StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("expected StatusError, got %v", err)
			}
			if statusErr.Code != tt.status || statusErr.Body != "nope" {
				t.Errorf("status error: %+v", statusErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls: got %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}
