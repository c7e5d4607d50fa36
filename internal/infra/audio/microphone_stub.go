//go:build !portaudio
// +build !portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"

	"voice-companion/internal/application"
	"voice-companion/internal/domain"
)

// MicrophoneCapture stub when portaudio is not available
type MicrophoneCapture struct {
	logger *slog.Logger
}

func NewMicrophoneCapture(_ string, logger *slog.Logger) *MicrophoneCapture {
	return &MicrophoneCapture{logger: logger}
}

func (m *MicrophoneCapture) Name() string {
	return "microphone"
}

func (m *MicrophoneCapture) Begin(_ context.Context, _ domain.RecordingPreset) (application.Recording, error) {
	return nil, fmt.Errorf("microphone capture not available: rebuild with -tags portaudio")
}

// MicrophonePermission stub; always denies.
type MicrophonePermission struct {
	logger *slog.Logger
}

func NewMicrophonePermission(logger *slog.Logger) *MicrophonePermission {
	return &MicrophonePermission{logger: logger}
}

func (p *MicrophonePermission) RequestMicrophoneAccess(_ context.Context) bool {
	p.logger.Warn("microphone not available: rebuild with -tags portaudio")
	return false
}
