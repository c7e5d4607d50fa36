package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voice-companion/internal/domain"
)

func TestFFmpegCapture_Args(t *testing.T) {
	c := NewFFmpegCapture("", "alsa", "hw:0", t.TempDir(), testLogger())

	args := strings.Join(c.args(domain.PresetDarwin, "/tmp/out.wav"), " ")

	for _, want := range []string{"-f alsa", "-i hw:0", "-ac 2", "-ar 44100", "-c:a pcm_s16le", "-y /tmp/out.wav"} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
}

func TestFFmpegCapture_MissingBinary(t *testing.T) {
	c := NewFFmpegCapture(filepath.Join(t.TempDir(), "no-such-ffmpeg"), "", "", t.TempDir(), testLogger())

	if _, err := c.Begin(context.Background(), domain.PresetLinux); err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestNormalizeStopErr(t *testing.T) {
	if normalizeStopErr(nil) != nil {
		t.Error("nil should stay nil")
	}
	other := errors.New("wait failed")
	if !errors.Is(normalizeStopErr(other), other) {
		t.Error("non-exit errors must be kept")
	}
}

func TestCheckWAV(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.wav")
	short := filepath.Join(dir, "short.wav")
	os.WriteFile(good, EncodeWAV([]int16{1, 2, 3}, 16000, 1), 0o644)
	os.WriteFile(short, []byte("RIFF"), 0o644)

	if err := checkWAV(good); err != nil {
		t.Errorf("good wav: %v", err)
	}
	if err := checkWAV(short); err == nil {
		t.Error("short file should fail")
	}
}
