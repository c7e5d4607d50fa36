package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"voice-companion/internal/application"
	"voice-companion/internal/domain"
)

// FileCapture replays pre-recorded WAV files instead of using a microphone.
// A directory is cycled in name order; a single file is returned every time.
type FileCapture struct {
	path string

	mu   sync.Mutex
	next int
}

func NewFileCapture(path string) *FileCapture {
	return &FileCapture{path: path}
}

func (f *FileCapture) Name() string {
	return "file"
}

func (f *FileCapture) Begin(_ context.Context, _ domain.RecordingPreset) (application.Recording, error) {
	files, err := f.candidates()
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	path := files[f.next%len(files)]
	f.next++
	f.mu.Unlock()

	if err := checkWAV(path); err != nil {
		return nil, err
	}

	return fileRecording(path), nil
}

func (f *FileCapture) candidates() ([]string, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		return nil, fmt.Errorf("reading replay source: %w", err)
	}

	if !info.IsDir() {
		return []string{f.path}, nil
	}

	entries, err := os.ReadDir(f.path)
	if err != nil {
		return nil, fmt.Errorf("reading dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".wav") {
			continue
		}
		files = append(files, filepath.Join(f.path, entry.Name()))
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no wav files in %s", f.path)
	}

	sort.Strings(files)
	return files, nil
}

type fileRecording string

func (r fileRecording) Finish(_ context.Context) (string, error) {
	return string(r), nil
}

func (r fileRecording) Close() error {
	return nil
}
