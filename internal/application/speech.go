package application

import (
	"context"
	"fmt"

	"voice-companion/internal/domain"
)

type SpeechToText interface {
	Transcribe(ctx context.Context, locator string) (string, error)
}

// Completer turns a prompt into a reply under the fixed persona.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Synthesizer speaks text and blocks until the utterance ends or ctx is done.
type Synthesizer interface {
	Speak(ctx context.Context, text string, opts domain.SpeechOptions) error
}

// NoopSTT is used when no transcription key is configured.
type NoopSTT struct{}

func (n *NoopSTT) Transcribe(_ context.Context, _ string) (string, error) {
	return "", fmt.Errorf("speech-to-text not configured: set openai.api_key to enable transcription")
}

// VoiceSettings is the per-utterance template copied into SpeechOptions.
type VoiceSettings struct {
	Voice    string
	Language string
	Pitch    float64
	Rate     float64
}

func (v VoiceSettings) options(onDone func()) domain.SpeechOptions {
	return domain.SpeechOptions{
		Voice:    v.Voice,
		Language: v.Language,
		Pitch:    v.Pitch,
		Rate:     v.Rate,
		OnDone:   onDone,
	}
}
