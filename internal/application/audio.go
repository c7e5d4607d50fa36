package application

import (
	"context"

	"voice-companion/internal/domain"
)

// PermissionGate asks the platform for microphone access. Implementations
// report any failure as a denial.
type PermissionGate interface {
	RequestMicrophoneAccess(ctx context.Context) bool
}

// AudioCapture starts platform recordings.
type AudioCapture interface {
	Begin(ctx context.Context, preset domain.RecordingPreset) (Recording, error)
	Name() string
}

// Recording is a single in-progress capture.
type Recording interface {
	// Finish finalizes the artifact and returns its locator.
	Finish(ctx context.Context) (string, error)
	// Close unloads the capture. Safe to call after Finish.
	Close() error
}
