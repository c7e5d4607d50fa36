package application

import (
	"context"
	"log/slog"
	"sync"

	"voice-companion/internal/domain"
)

type RecorderState string

const (
	RecorderIdle      RecorderState = "idle"
	RecorderArmed     RecorderState = "armed"
	RecorderRecording RecorderState = "recording"
	RecorderStopped   RecorderState = "stopped"
)

// RecorderController owns the lifecycle of one recording at a time and is
// the only writer of the shared audio mode.
type RecorderController struct {
	capture AudioCapture
	audio   *domain.AudioSession
	preset  domain.RecordingPreset
	logger  *slog.Logger

	mu        sync.Mutex
	state     RecorderState
	active    Recording
	prevMode  domain.AudioMode
	abortArm  context.CancelFunc
	armed     chan struct{}
	cancelled bool
}

func NewRecorderController(
	capture AudioCapture,
	audio *domain.AudioSession,
	preset domain.RecordingPreset,
	logger *slog.Logger,
) *RecorderController {
	return &RecorderController{
		capture: capture,
		audio:   audio,
		preset:  preset,
		logger:  logger,
		state:   RecorderIdle,
	}
}

func (r *RecorderController) State() RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start begins a recording. A second Start while one is armed or running is
// rejected with ErrAlreadyRecording. A Cancel while the capture is still
// starting makes Start discard it and return ErrStaleSession.
func (r *RecorderController) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state == RecorderArmed || r.state == RecorderRecording {
		r.mu.Unlock()
		return domain.ErrAlreadyRecording
	}
	r.state = RecorderArmed
	r.cancelled = false
	ctx, cancel := context.WithCancel(ctx)
	r.abortArm = cancel
	armed := make(chan struct{})
	r.armed = armed
	prev := r.audio.Swap(domain.AudioModeRecord)
	r.mu.Unlock()

	defer close(armed)
	defer cancel()

	rec, err := r.capture.Begin(ctx, r.preset)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.abortArm = nil

	if r.cancelled {
		if rec != nil {
			if closeErr := rec.Close(); closeErr != nil {
				r.logger.Warn("discarding recording", "error", closeErr)
			}
		}
		r.audio.Swap(prev)
		r.state = RecorderIdle
		r.logger.Info("recording cancelled while starting")
		return domain.ErrStaleSession
	}

	if err != nil {
		r.audio.Swap(prev)
		r.state = RecorderIdle
		return &domain.PipelineError{Kind: domain.ErrorRecording, Op: "start recording", Err: err}
	}

	r.active = rec
	r.prevMode = prev
	r.state = RecorderRecording
	r.logger.Info("recording started", "capture", r.capture.Name(), "preset", r.preset.Name)
	return nil
}

// Stop finalizes the running recording and returns the artifact locator.
// The audio mode is restored on every path out of Stop.
func (r *RecorderController) Stop(ctx context.Context) (locator string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RecorderRecording {
		return "", domain.ErrNotRecording
	}

	rec := r.active
	r.active = nil
	defer r.audio.Swap(r.prevMode)

	defer func() {
		if closeErr := rec.Close(); closeErr != nil {
			r.logger.Warn("unloading recording", "error", closeErr)
		}
	}()

	locator, err = rec.Finish(ctx)
	if err != nil {
		r.state = RecorderIdle
		return "", &domain.PipelineError{Kind: domain.ErrorRecording, Op: "stop recording", Err: err}
	}

	r.state = RecorderStopped
	r.logger.Info("recording stopped", "locator", locator)
	return locator, nil
}

// Cancel drops an in-progress recording without producing an artifact. If
// the capture is still starting, Cancel waits until Start has released it.
func (r *RecorderController) Cancel() {
	r.mu.Lock()

	switch r.state {
	case RecorderArmed:
		r.cancelled = true
		if r.abortArm != nil {
			r.abortArm()
		}
		armed := r.armed
		r.mu.Unlock()
		<-armed
		return
	case RecorderRecording:
		if err := r.active.Close(); err != nil {
			r.logger.Warn("discarding recording", "error", err)
		}
		r.active = nil
		r.audio.Swap(r.prevMode)
		r.state = RecorderIdle
	}
	r.mu.Unlock()
}
