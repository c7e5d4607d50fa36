package audio_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"voice-companion/internal/domain"
	"voice-companion/internal/infra/audio"
)

func writeSample(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data := audio.EncodeWAV(make([]int16, 160), 16000, 1)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}
	return path
}

func TestFileCapture_CyclesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	first := writeSample(t, tmpDir, "command1.wav")
	second := writeSample(t, tmpDir, "command2.wav")
	if err := os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("skip me"), 0644); err != nil {
		t.Fatalf("writing note: %v", err)
	}

	capture := audio.NewFileCapture(tmpDir)
	ctx := context.Background()

	want := []string{first, second, first}
	for i, w := range want {
		rec, err := capture.Begin(ctx, domain.PresetLinux)
		if err != nil {
			t.Fatalf("take %d: begin: %v", i, err)
		}
		got, err := rec.Finish(ctx)
		if err != nil {
			t.Fatalf("take %d: finish: %v", i, err)
		}
		rec.Close()
		if got != w {
			t.Errorf("take %d: got %s, want %s", i, got, w)
		}
	}
}

func TestFileCapture_SingleFile(t *testing.T) {
	path := writeSample(t, t.TempDir(), "hello.wav")
	capture := audio.NewFileCapture(path)

	rec, err := capture.Begin(context.Background(), domain.PresetLinux)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	got, _ := rec.Finish(context.Background())
	if got != path {
		t.Errorf("locator: got %s, want %s", got, path)
	}
}

func TestFileCapture_Errors(t *testing.T) {
	empty := t.TempDir()

	notWav := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(notWav, []byte("definitely not a riff header, but long enough to read"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing path", filepath.Join(empty, "nope")},
		{"empty dir", empty},
		{"invalid wav", notWav},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := audio.NewFileCapture(tt.path).Begin(context.Background(), domain.PresetLinux); err == nil {
				t.Error("expected error")
			}
		})
	}
}
