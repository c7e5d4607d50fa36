package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"voice-companion/internal/domain"
)

const (
	alertPermission  = "Microphone access is required to talk to the assistant."
	alertStartFailed = "Could not start recording. Please try again."
	alertStopFailed  = "Could not finish the recording. Please try again."

	failedTranscribe = "Could not transcribe the recording. Please try again."
	failedNoSpeech   = "No speech was detected. Please try again."
	failedComplete   = "Could not get a reply. Press regenerate to try again."
)

// failureMessage is the text shown for a failed step. Transport errors can
// carry URLs and credentials, so they stay in the logs.
func failureMessage(op string, err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyTranscript):
		return failedNoSpeech
	case op == "transcribe":
		return failedTranscribe
	default:
		return failedComplete
	}
}

// Conversation drives one voice exchange at a time:
// idle → recording → loading → responded, with error and back paths.
//
// The mutex guards state only; it is never held across a permission request,
// recorder call, network call or sink notification. Every transition that
// abandons a session bumps generation, and results from an older generation
// are dropped.
type Conversation struct {
	gate     PermissionGate
	recorder *RecorderController
	stt      SpeechToText
	llm      Completer
	playback *PlaybackController
	events   EventSink
	voice    VoiceSettings
	logger   *slog.Logger

	mu         sync.Mutex
	view       domain.View
	session    *domain.Session
	generation uint64
	utterance  uint64
	cancel     context.CancelFunc
	arming     bool
}

func NewConversation(
	gate PermissionGate,
	recorder *RecorderController,
	stt SpeechToText,
	llm Completer,
	playback *PlaybackController,
	events EventSink,
	voice VoiceSettings,
	logger *slog.Logger,
) *Conversation {
	return &Conversation{
		gate:     gate,
		recorder: recorder,
		stt:      stt,
		llm:      llm,
		playback: playback,
		events:   events,
		voice:    voice,
		logger:   logger,
		view:     domain.View{Stage: domain.StageIdle},
	}
}

func (c *Conversation) Snapshot() domain.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// StartRecording handles the mic button. Back while the gate or the
// recorder is still starting abandons the attempt.
func (c *Conversation) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	stage := c.view.Stage
	if stage != domain.StageIdle && stage != domain.StageError {
		c.mu.Unlock()
		return fmt.Errorf("mic from %s: %w", stage, domain.ErrInvalidTransition)
	}
	if c.arming {
		c.mu.Unlock()
		return domain.ErrAlreadyRecording
	}
	c.abandonLocked()
	c.arming = true
	gen := c.generation
	c.mu.Unlock()

	if !c.gate.RequestMicrophoneAccess(ctx) {
		c.logger.Warn("microphone permission denied")
		if c.resetIfCurrent(gen) {
			c.events.Alert(alertPermission)
		}
		return &domain.PipelineError{Kind: domain.ErrorPermissionDenied, Op: "request permission", Err: domain.ErrPermissionDenied}
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return c.stale(gen, "request permission")
	}
	c.mu.Unlock()

	c.playback.Stop()

	if err := c.recorder.Start(ctx); err != nil {
		if errors.Is(err, domain.ErrStaleSession) {
			return c.stale(gen, "start recording")
		}
		if errors.Is(err, domain.ErrAlreadyRecording) {
			c.endArming(gen)
			return err
		}
		c.logger.Error("starting recording", "error", err)
		if c.resetIfCurrent(gen) {
			c.events.Alert(alertStartFailed)
		}
		return err
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.recorder.Cancel()
		return c.stale(gen, "start recording")
	}
	c.arming = false
	c.session = &domain.Session{ID: uuid.NewString(), StartedAt: time.Now()}
	view := c.setViewLocked(domain.View{Stage: domain.StageRecording, SessionID: c.session.ID})
	c.mu.Unlock()

	c.logger.Info("session started", "session", view.SessionID)
	c.events.StateChanged(view)
	return nil
}

func (c *Conversation) endArming(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.generation {
		c.arming = false
	}
}

// StopRecording handles the stop button and runs transcription and
// completion before returning.
func (c *Conversation) StopRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.view.Stage != domain.StageRecording {
		stage := c.view.Stage
		c.mu.Unlock()
		return fmt.Errorf("stop from %s: %w", stage, domain.ErrInvalidTransition)
	}
	ctx, gen := c.beginLocked(ctx)
	session := c.session
	view := c.setViewLocked(domain.View{Stage: domain.StageLoading, SessionID: session.ID, Text: domain.Placeholder})
	c.mu.Unlock()

	c.events.StateChanged(view)

	locator, err := c.recorder.Stop(ctx)
	if err != nil {
		c.logger.Error("stopping recording", "error", err)
		if c.resetIfCurrent(gen) {
			c.events.Alert(alertStopFailed)
		}
		return err
	}

	transcript, err := c.stt.Transcribe(ctx, locator)
	if err == nil && strings.TrimSpace(transcript) == "" {
		err = domain.ErrEmptyTranscript
	}
	if err != nil {
		return c.fail(gen, "transcribe", err)
	}
	transcript = strings.TrimSpace(transcript)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return c.stale(gen, "transcribe")
	}
	session.Audio = locator
	session.Transcript = transcript
	view = c.setViewLocked(domain.View{Stage: domain.StageLoading, SessionID: session.ID, Text: transcript})
	c.mu.Unlock()

	c.logger.Info("transcribed", "session", session.ID, "text", transcript)
	c.events.StateChanged(view)

	return c.complete(ctx, gen, session)
}

// Regenerate asks for a new reply to the stored transcript without
// recording again.
func (c *Conversation) Regenerate(ctx context.Context) error {
	c.mu.Lock()
	stage := c.view.Stage
	allowed := stage == domain.StageResponded ||
		(stage == domain.StageError && c.session != nil && c.session.Transcript != "")
	if !allowed {
		c.mu.Unlock()
		return fmt.Errorf("regenerate from %s: %w", stage, domain.ErrInvalidTransition)
	}
	ctx, gen := c.beginLocked(ctx)
	session := c.session
	view := c.setViewLocked(domain.View{Stage: domain.StageLoading, SessionID: session.ID, Text: domain.Placeholder})
	c.mu.Unlock()

	c.playback.Stop()
	c.events.StateChanged(view)

	return c.complete(ctx, gen, session)
}

// Replay speaks the current reply again.
func (c *Conversation) Replay() error {
	c.mu.Lock()
	if c.view.Stage != domain.StageResponded {
		stage := c.view.Stage
		c.mu.Unlock()
		return fmt.Errorf("replay from %s: %w", stage, domain.ErrInvalidTransition)
	}
	gen := c.generation
	reply := c.session.Reply
	c.mu.Unlock()

	c.speak(gen, reply)
	return nil
}

// Back returns to idle from any stage, abandoning the current session. A
// recording that is still starting is cancelled before Back returns.
func (c *Conversation) Back() {
	c.mu.Lock()
	if c.view.Stage == domain.StageIdle && !c.arming {
		c.mu.Unlock()
		return
	}
	cancelRecorder := c.view.Stage == domain.StageRecording || c.arming
	wasIdle := c.view.Stage == domain.StageIdle
	c.abandonLocked()
	c.session = nil
	var view domain.View
	if !wasIdle {
		view = c.setViewLocked(domain.View{Stage: domain.StageIdle})
	}
	c.mu.Unlock()

	if cancelRecorder {
		c.recorder.Cancel()
	}
	c.playback.Stop()
	if !wasIdle {
		c.events.StateChanged(view)
	}
}

func (c *Conversation) complete(ctx context.Context, gen uint64, session *domain.Session) error {
	reply, err := c.llm.Complete(ctx, session.Transcript)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("completion returned no text")
	}
	if err != nil {
		return c.fail(gen, "complete", err)
	}
	reply = strings.TrimSpace(reply)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return c.stale(gen, "complete")
	}
	session.Reply = reply
	view := c.setViewLocked(domain.View{Stage: domain.StageResponded, SessionID: session.ID, Text: reply})
	c.mu.Unlock()

	c.logger.Info("reply ready", "session", session.ID, "chars", len(reply))
	c.events.StateChanged(view)

	c.speak(gen, reply)
	return nil
}

func (c *Conversation) speak(gen uint64, text string) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.utterance++
	token := c.utterance
	view := c.view
	view.Speaking = true
	view = c.setViewLocked(view)
	c.mu.Unlock()

	c.events.StateChanged(view)

	c.playback.Speak(text, c.voice.options(func() {
		c.mu.Lock()
		if token != c.utterance || !c.view.Speaking {
			c.mu.Unlock()
			return
		}
		view := c.view
		view.Speaking = false
		view = c.setViewLocked(view)
		c.mu.Unlock()

		c.events.StateChanged(view)
	}))
}

func (c *Conversation) fail(gen uint64, op string, err error) error {
	pipelineErr := &domain.PipelineError{Kind: domain.ErrorNetwork, Op: op, Err: err}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return c.stale(gen, op)
	}
	view := domain.View{Stage: domain.StageError, Error: failureMessage(op, err)}
	if c.session != nil {
		view.SessionID = c.session.ID
		view.Text = c.session.Transcript
	}
	view = c.setViewLocked(view)
	c.mu.Unlock()

	c.logger.Error("pipeline failed", "error", pipelineErr)
	c.events.StateChanged(view)
	return pipelineErr
}

func (c *Conversation) stale(gen uint64, op string) error {
	c.logger.Debug("dropping result of abandoned session", "op", op, "generation", gen)
	return fmt.Errorf("%s: %w", op, domain.ErrStaleSession)
}

func (c *Conversation) resetToIdle() {
	c.mu.Lock()
	c.abandonLocked()
	c.session = nil
	view := c.setViewLocked(domain.View{Stage: domain.StageIdle})
	c.mu.Unlock()

	c.events.StateChanged(view)
}

func (c *Conversation) resetIfCurrent(gen uint64) bool {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()
	c.resetToIdle()
	return true
}

// beginLocked starts a new generation with its own cancellable context.
func (c *Conversation) beginLocked(parent context.Context) (context.Context, uint64) {
	c.abandonLocked()
	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel
	return ctx, c.generation
}

func (c *Conversation) abandonLocked() {
	c.generation++
	c.arming = false
	c.utterance++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Conversation) setViewLocked(view domain.View) domain.View {
	view.Version = c.view.Version + 1
	c.view = view
	return view
}
