package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"voice-companion/config"
	"voice-companion/internal/application"
	"voice-companion/internal/domain"
	"voice-companion/internal/infra"
	"voice-companion/internal/infra/anthropic"
	"voice-companion/internal/infra/audio"
	"voice-companion/internal/infra/control"
	"voice-companion/internal/infra/gemini"
	"voice-companion/internal/infra/openai"
	"voice-companion/internal/infra/pushover"
	"voice-companion/internal/infra/store"
	"voice-companion/internal/infra/tts"
)

// Options adjusts the graph for a particular command.
type Options struct {
	// ReplayPath forces the file backend with this WAV file or directory.
	ReplayPath string
	// Sinks receive conversation events in addition to the control hub.
	Sinks []application.EventSink
	// DisableControl skips the HTTP control surface even if configured.
	DisableControl bool
}

// Services is the assembled runtime graph.
type Services struct {
	Config       *config.Config
	Conversation *application.Conversation
	Onboarding   *application.Onboarding
	Control      *control.Server
	Audio        *domain.AudioSession

	store  *store.Store
	logger *slog.Logger
}

// Build wires all dependencies for the current runtime.
func Build(cfg *config.Config, logger *slog.Logger, opts Options) (*Services, error) {
	llm, err := buildCompleter(cfg, RetryConfig(cfg.Retry))
	if err != nil {
		return nil, err
	}

	statePath := cfg.State.Path
	if statePath == "" {
		statePath = store.DefaultPath()
	}
	flags, err := store.Open(statePath)
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}

	gate, capture := buildCapture(cfg.Audio, opts.ReplayPath, logger.With("component", "audio"))
	stt := buildTranscriber(cfg.OpenAI, RetryConfig(cfg.Retry), logger)
	synth := buildSynthesizer(cfg.Speech, logger.With("component", "tts"))

	session := domain.NewAudioSession()
	preset := domain.PresetFor(runtime.GOOS)

	sinks := append(application.MultiSink{}, opts.Sinks...)
	if cfg.Pushover.Enabled {
		sinks = append(sinks, pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey, logger.With("component", "pushover")))
	}

	var hub *control.Hub
	controlEnabled := cfg.Control.Enabled && !opts.DisableControl
	if controlEnabled {
		hub = control.NewHub(logger.With("component", "control"))
		sinks = append(sinks, hub)
	}

	conv := application.NewConversation(
		gate,
		application.NewRecorderController(capture, session, preset, logger.With("component", "recorder")),
		stt,
		llm,
		application.NewPlaybackController(synth, logger.With("component", "playback")),
		sinks,
		application.VoiceSettings{
			Voice:    cfg.Speech.Voice,
			Language: cfg.Speech.Language,
			Pitch:    cfg.Speech.Pitch,
			Rate:     cfg.Speech.Rate,
		},
		logger.With("component", "conversation"),
	)

	var server *control.Server
	if controlEnabled {
		if cfg.Control.AuthToken == "" {
			logger.Warn("control API enabled without auth token", "addr", cfg.Control.Addr)
		}
		server = control.NewServer(cfg.Control.Addr, cfg.Control.AuthToken, cfg.Control.RatePerMinute, conv, hub, logger.With("component", "control"))
	}

	logger.Info("services ready",
		"capture", capture.Name(),
		"preset", preset.Name,
		"provider", cfg.Completion.Provider,
		"speech", cfg.Speech.Engine,
		"control", controlEnabled,
		"pushover", cfg.Pushover.Enabled,
	)

	return &Services{
		Config:       cfg,
		Conversation: conv,
		Onboarding:   application.NewOnboarding(flags, logger.With("component", "onboarding")),
		Control:      server,
		Audio:        session,
		store:        flags,
		logger:       logger,
	}, nil
}

// Start brings up the optional control API.
func (s *Services) Start(ctx context.Context) error {
	if s.Control == nil {
		return nil
	}
	return s.Control.Start(ctx)
}

// Close abandons any active session and releases resources.
func (s *Services) Close() error {
	s.Conversation.Back()

	var errs []error
	if s.Control != nil {
		errs = append(errs, s.Control.Stop())
	}
	errs = append(errs, s.store.Close())
	return errors.Join(errs...)
}

// RetryConfig converts the config section to the retry helper's form.
func RetryConfig(cfg config.RetryConfig) infra.RetryConfig {
	out := infra.DefaultRetryConfig()
	if cfg.MaxAttempts > 0 {
		out.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialDelay > 0 {
		out.InitialDelay = cfg.InitialDelay
	}
	if cfg.MaxDelay > 0 {
		out.MaxDelay = cfg.MaxDelay
	}
	return out
}

func buildCapture(cfg config.AudioConfig, replayPath string, logger *slog.Logger) (application.PermissionGate, application.AudioCapture) {
	backend := cfg.Backend
	path := cfg.ReplayPath
	if replayPath != "" {
		backend = "file"
		path = replayPath
	}

	switch backend {
	case "file":
		return audio.NewDirPermission(path, logger), audio.NewFileCapture(path)
	case "microphone":
		return audio.NewMicrophonePermission(logger), audio.NewMicrophoneCapture(cfg.Dir, logger)
	default:
		return audio.NewCommandPermission(cfg.Consent, cfg.Command, logger),
			audio.NewFFmpegCapture(cfg.Command, cfg.InputFormat, cfg.InputDevice, cfg.Dir, logger)
	}
}

func buildTranscriber(cfg config.OpenAIConfig, retry infra.RetryConfig, logger *slog.Logger) application.SpeechToText {
	if cfg.APIKey == "" {
		logger.Warn("openai.api_key not set, transcription disabled")
		return &application.NoopSTT{}
	}
	return openai.NewWhisperClientWithURL(cfg.APIKey, cfg.TranscriptionModel, cfg.Language, cfg.BaseURL).WithRetry(retry)
}

func buildCompleter(cfg *config.Config, retry infra.RetryConfig) (application.Completer, error) {
	switch cfg.Completion.Provider {
	case "anthropic":
		if cfg.Anthropic.APIKey == "" {
			return nil, fmt.Errorf("completion.provider is anthropic but anthropic.api_key is empty")
		}
		return anthropic.NewClaudeClientWithURL(cfg.Anthropic.APIKey, cfg.Anthropic.Model, domain.Persona, cfg.Anthropic.BaseURL).WithRetry(retry), nil
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("completion.provider is gemini but gemini.api_key is empty")
		}
		return gemini.NewClientWithURL(cfg.Gemini.APIKey, cfg.Gemini.Model, domain.Persona, cfg.Gemini.BaseURL).WithRetry(retry), nil
	case "openai", "":
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai.api_key is required for the openai completion provider")
		}
		return openai.NewChatClientWithURL(cfg.OpenAI.APIKey, cfg.OpenAI.ChatModel, domain.Persona, cfg.OpenAI.BaseURL).WithRetry(retry), nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Completion.Provider)
	}
}

// silentPerRune keeps the speaking indicator up for roughly the time the
// reply would take to read aloud.
const silentPerRune = 60 * time.Millisecond

func buildSynthesizer(cfg config.SpeechConfig, logger *slog.Logger) application.Synthesizer {
	if cfg.Engine == "silent" {
		return tts.NewSilent(silentPerRune, logger)
	}

	synth, err := tts.NewCommandSynthesizer(cfg.Command, logger)
	if err != nil {
		logger.Warn("speech command unavailable, replies will not be spoken", "error", err)
		return tts.NewSilent(silentPerRune, logger)
	}
	return synth
}
