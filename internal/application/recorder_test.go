package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"voice-companion/internal/application"
	"voice-companion/internal/domain"
)

func newRecorder(capture *mockCapture) (*application.RecorderController, *domain.AudioSession) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	audio := domain.NewAudioSession()
	capture.audio = audio
	return application.NewRecorderController(capture, audio, domain.PresetLinux, logger), audio
}

func TestRecorderController_Lifecycle(t *testing.T) {
	capture := &mockCapture{}
	rec, audio := newRecorder(capture)

	if rec.State() != application.RecorderIdle {
		t.Fatalf("initial state: got %s", rec.State())
	}

	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if rec.State() != application.RecorderRecording {
		t.Errorf("state after start: got %s", rec.State())
	}
	if audio.Mode() != domain.AudioModeRecord {
		t.Errorf("mode while recording: got %s", audio.Mode())
	}

	locator, err := rec.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if locator != "/tmp/take.wav" {
		t.Errorf("locator: got %q", locator)
	}
	if rec.State() != application.RecorderStopped {
		t.Errorf("state after stop: got %s", rec.State())
	}
	if audio.Mode() != domain.AudioModePlayback {
		t.Errorf("mode after stop: got %s", audio.Mode())
	}
	if !capture.last.closed {
		t.Error("recording should be unloaded after stop")
	}

	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start after stop: %v", err)
	}
}

func TestRecorderController_RejectsReentrantStart(t *testing.T) {
	capture := &mockCapture{}
	rec, _ := newRecorder(capture)

	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := rec.Start(context.Background()); !errors.Is(err, domain.ErrAlreadyRecording) {
		t.Errorf("second Start: got %v, want ErrAlreadyRecording", err)
	}
	if capture.begins != 1 {
		t.Errorf("begins: got %d, want 1", capture.begins)
	}
}

func TestRecorderController_StopWithoutStart(t *testing.T) {
	rec, _ := newRecorder(&mockCapture{})

	if _, err := rec.Stop(context.Background()); !errors.Is(err, domain.ErrNotRecording) {
		t.Errorf("Stop: got %v, want ErrNotRecording", err)
	}
}

func TestRecorderController_RestoresModeOnFailures(t *testing.T) {
	tests := []struct {
		name      string
		beginErr  error
		finishErr error
	}{
		{name: "start fails", beginErr: errors.New("no input device")},
		{name: "finalize fails", finishErr: errors.New("write failed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capture := &mockCapture{beginErr: tt.beginErr, finishErr: tt.finishErr}
			rec, audio := newRecorder(capture)

			err := rec.Start(context.Background())
			if tt.beginErr == nil {
				if err != nil {
					t.Fatalf("Start: %v", err)
				}
				_, err = rec.Stop(context.Background())
			}

			if domain.KindOf(err) != domain.ErrorRecording {
				t.Errorf("kind: got %s (%v)", domain.KindOf(err), err)
			}
			if audio.Mode() != domain.AudioModePlayback {
				t.Errorf("mode: got %s, want playback", audio.Mode())
			}
			if rec.State() != application.RecorderIdle {
				t.Errorf("state: got %s, want idle", rec.State())
			}
		})
	}
}

func TestRecorderController_Cancel(t *testing.T) {
	capture := &mockCapture{}
	rec, audio := newRecorder(capture)

	rec.Cancel()
	if rec.State() != application.RecorderIdle {
		t.Errorf("cancel on idle changed state: %s", rec.State())
	}

	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rec.Cancel()

	if rec.State() != application.RecorderIdle {
		t.Errorf("state: got %s", rec.State())
	}
	if audio.Mode() != domain.AudioModePlayback {
		t.Errorf("mode: got %s", audio.Mode())
	}
	if !capture.last.closed {
		t.Error("recording should be closed")
	}
}

func TestRecorderController_CancelWhileStarting(t *testing.T) {
	capture := &mockCapture{
		entered:    make(chan struct{}, 1),
		release:    make(chan struct{}),
		finishLate: true,
	}
	rec, audio := newRecorder(capture)

	errCh := make(chan error, 1)
	go func() { errCh <- rec.Start(context.Background()) }()
	<-capture.entered

	if rec.State() != application.RecorderArmed {
		t.Errorf("state while starting: got %s", rec.State())
	}

	rec.Cancel()

	if err := <-errCh; !errors.Is(err, domain.ErrStaleSession) {
		t.Fatalf("Start: got %v, want ErrStaleSession", err)
	}
	if rec.State() != application.RecorderIdle {
		t.Errorf("state after cancel: got %s", rec.State())
	}
	if !capture.last.closed {
		t.Error("late recording should be closed")
	}
	if audio.Mode() != domain.AudioModePlayback {
		t.Errorf("mode after cancel: got %s", audio.Mode())
	}
}
