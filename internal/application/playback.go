package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"voice-companion/internal/domain"
)

// PlaybackController plays one utterance at a time. Speak replaces whatever is
// currently playing; OnDone fires exactly once per Speak call.
type PlaybackController struct {
	synth  Synthesizer
	logger *slog.Logger

	mu      sync.Mutex
	current *utterance
}

type utterance struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPlaybackController(synth Synthesizer, logger *slog.Logger) *PlaybackController {
	return &PlaybackController{synth: synth, logger: logger}
}

// Speak starts synthesis in the background and returns immediately.
func (p *PlaybackController) Speak(text string, opts domain.SpeechOptions) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	u := &utterance{cancel: cancel, done: make(chan struct{})}
	p.current = u

	var once sync.Once
	finish := func() {
		once.Do(func() {
			if opts.OnDone != nil {
				opts.OnDone()
			}
		})
	}

	go func() {
		defer close(u.done)
		defer finish()
		defer cancel()

		err := p.synth.Speak(ctx, text, opts)
		if err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Error("speech synthesis", "error", &domain.PipelineError{Kind: domain.ErrorSynthesis, Op: "speak", Err: err})
		}
	}()
}

// Stop cancels the current utterance and waits for its OnDone.
func (p *PlaybackController) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *PlaybackController) Speaking() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return false
	}
	select {
	case <-p.current.done:
		return false
	default:
		return true
	}
}

func (p *PlaybackController) stopLocked() {
	if p.current == nil {
		return
	}
	p.current.cancel()
	<-p.current.done
	p.current = nil
}
