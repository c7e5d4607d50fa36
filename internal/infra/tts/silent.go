package tts

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"voice-companion/internal/domain"
)

// Silent logs the text instead of speaking it. It holds for a short time
// proportional to the text so the speaking indicator stays visible.
type Silent struct {
	perRune time.Duration
	logger  *slog.Logger
}

func NewSilent(perRune time.Duration, logger *slog.Logger) *Silent {
	return &Silent{perRune: perRune, logger: logger}
}

func (s *Silent) Speak(ctx context.Context, text string, _ domain.SpeechOptions) error {
	s.logger.Info("reply", "text", text)

	if s.perRune <= 0 {
		return nil
	}

	timer := time.NewTimer(time.Duration(utf8.RuneCountInString(text)) * s.perRune)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
