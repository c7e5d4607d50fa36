package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voice-companion/config"
	"voice-companion/internal/domain"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.LogConfig
		wantInfo bool
		wantJSON bool
	}{
		{"text info", config.LogConfig{Level: "info", Format: "text"}, true, false},
		{"text warn hides info", config.LogConfig{Level: "warn", Format: "text"}, false, false},
		{"json info", config.LogConfig{Level: "info", Format: "json"}, true, true},
		{"json error hides info", config.LogConfig{Level: "error", Format: "json"}, false, true},
		{"unknown level falls back to info", config.LogConfig{Level: "loud", Format: "text"}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := setupLogger(tt.cfg, &buf)
			logger.Info("hello", "key", "value")

			out := buf.String()
			if got := strings.Contains(out, "hello"); got != tt.wantInfo {
				t.Fatalf("info logged = %v, want %v (output %q)", got, tt.wantInfo, out)
			}
			if tt.wantInfo && tt.wantJSON && !strings.HasPrefix(out, "{") {
				t.Errorf("expected JSON output, got %q", out)
			}
		})
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cli := &CLI{Config: filepath.Join(t.TempDir(), "absent.yaml")}

	cfg, err := cli.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Completion.Provider != "openai" {
		t.Errorf("provider = %q", cfg.Completion.Provider)
	}
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log:\n  format: xml\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := (&CLI{Config: path}).loadConfig(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestSpeechWaiter(t *testing.T) {
	w := newSpeechWaiter()

	w.StateChanged(domain.View{Stage: domain.StageLoading})
	select {
	case <-w.done:
		t.Fatal("done before speech started")
	default:
	}

	w.StateChanged(domain.View{Stage: domain.StageResponded, Speaking: true})
	w.StateChanged(domain.View{Stage: domain.StageResponded})
	w.StateChanged(domain.View{Stage: domain.StageIdle})

	select {
	case <-w.done:
	default:
		t.Fatal("waiter should be done after speech ended")
	}
}
