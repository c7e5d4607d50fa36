package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"voice-companion/internal/application"
	"voice-companion/internal/bootstrap"
	"voice-companion/internal/domain"
	"voice-companion/internal/infra/store"
	"voice-companion/internal/tui"
)

type RunCmd struct {
	Replay string `help:"Replay WAV files from this file or directory instead of recording." type:"path"`
}

func (r *RunCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}

	logFile, err := openLogFile(cfg.Log.File)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := setupLogger(cfg.Log, logFile)

	sink := tui.NewSink()
	svc, err := bootstrap.Build(cfg, logger, bootstrap.Options{
		ReplayPath: r.Replay,
		Sinks:      []application.EventSink{sink},
	})
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.Start(ctx); err != nil {
		return err
	}

	model := tui.New(ctx, svc.Conversation, svc.Onboarding, !svc.Onboarding.Completed(ctx))
	p := tea.NewProgram(model, tea.WithAltScreen())
	sink.Attach(p)

	logger.Info("starting voice companion", "version", version)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

type ServeCmd struct {
	Addr string `help:"Override control.addr."`
}

func (s *ServeCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	cfg.Control.Enabled = true
	if s.Addr != "" {
		cfg.Control.Addr = s.Addr
	}

	logger := setupLogger(cfg.Log, os.Stderr)

	ctx, cancel := signalContext(logger)
	defer cancel()

	svc, err := bootstrap.Build(cfg, logger, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Start(ctx); err != nil {
		return err
	}

	logger.Info("control API listening", "addr", svc.Control.Addr(), "version", version)
	<-ctx.Done()
	return nil
}

type AskCmd struct {
	File   string `arg:"" help:"WAV file to send as the spoken prompt." type:"existingfile"`
	NoWait bool   `help:"Exit as soon as the reply text is available."`
}

func (a *AskCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Log, os.Stderr)

	ctx, cancel := signalContext(logger)
	defer cancel()

	waiter := newSpeechWaiter()
	svc, err := bootstrap.Build(cfg, logger, bootstrap.Options{
		ReplayPath:     a.File,
		Sinks:          []application.EventSink{waiter},
		DisableControl: true,
	})
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Conversation.StartRecording(ctx); err != nil {
		return fmt.Errorf("starting recording: %w", err)
	}
	if err := svc.Conversation.StopRecording(ctx); err != nil {
		return fmt.Errorf("processing recording: %w", err)
	}

	view := svc.Conversation.Snapshot()
	fmt.Println(view.Text)

	if a.NoWait || !view.Speaking {
		return nil
	}
	select {
	case <-waiter.done:
	case <-ctx.Done():
	}
	return nil
}

type ResetOnboardingCmd struct{}

func (r *ResetOnboardingCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Log, os.Stderr)

	path := cfg.State.Path
	if path == "" {
		path = store.DefaultPath()
	}
	flags, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}
	defer flags.Close()

	return application.NewOnboarding(flags, logger).Reset(context.Background())
}

func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
			logger.Info("shutting down")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// speechWaiter closes done once a spoken reply has finished.
type speechWaiter struct {
	mu       sync.Mutex
	speaking bool
	once     sync.Once
	done     chan struct{}
}

func newSpeechWaiter() *speechWaiter {
	return &speechWaiter{done: make(chan struct{})}
}

func (w *speechWaiter) StateChanged(view domain.View) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if view.Speaking {
		w.speaking = true
		return
	}
	if w.speaking {
		w.once.Do(func() { close(w.done) })
	}
}

func (w *speechWaiter) Alert(message string) {
	fmt.Fprintln(os.Stderr, message)
}
