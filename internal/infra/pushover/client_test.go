package pushover_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"voice-companion/internal/infra/pushover"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_Notify(t *testing.T) {
	var got http.Header
	var form map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		form = map[string]string{
			"token":   r.PostForm.Get("token"),
			"user":    r.PostForm.Get("user"),
			"message": r.PostForm.Get("message"),
			"title":   r.PostForm.Get("title"),
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := pushover.NewClientWithURL("tok", "usr", server.URL, testLogger())
	if err := client.Notify(context.Background(), "mic denied"); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if ct := got.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
		t.Errorf("content type: %q", ct)
	}
	want := map[string]string{"token": "tok", "user": "usr", "message": "mic denied", "title": "Voice Companion"}
	for k, v := range want {
		if form[k] != v {
			t.Errorf("%s: got %q, want %q", k, form[k], v)
		}
	}
}

func TestClient_NotifyError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusBadRequest)
	}))
	defer server.Close()

	client := pushover.NewClientWithURL("tok", "usr", server.URL, testLogger())
	if err := client.Notify(context.Background(), "x"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestClient_NotifyWithoutCredentials(t *testing.T) {
	client := pushover.NewClientWithURL("", "", "http://127.0.0.1:0", testLogger())
	if err := client.Notify(context.Background(), "x"); err != nil {
		t.Fatalf("missing credentials should be a no-op, got %v", err)
	}
}

func TestClient_AlertForwards(t *testing.T) {
	received := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		received <- r.PostForm.Get("message")
	}))
	defer server.Close()

	client := pushover.NewClientWithURL("tok", "usr", server.URL, testLogger())
	client.Alert("network down")

	select {
	case msg := <-received:
		if msg != "network down" {
			t.Errorf("message: got %q", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("alert was not forwarded")
	}
}
