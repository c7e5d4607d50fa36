//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/google/uuid"

	"voice-companion/internal/application"
	"voice-companion/internal/domain"
)

const framesPerBuffer = 1024

// MicrophoneCapture records from the default input device through portaudio.
type MicrophoneCapture struct {
	dir    string
	logger *slog.Logger
}

func NewMicrophoneCapture(dir string, logger *slog.Logger) *MicrophoneCapture {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "companion")
	}
	return &MicrophoneCapture{dir: dir, logger: logger}
}

func (m *MicrophoneCapture) Name() string {
	return "microphone"
}

func (m *MicrophoneCapture) Begin(_ context.Context, preset domain.RecordingPreset) (application.Recording, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating recording dir: %w", err)
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}

	buffer := make([]int16, framesPerBuffer*preset.Channels)

	stream, err := portaudio.OpenDefaultStream(
		preset.Channels,
		0,
		float64(preset.SampleRate),
		framesPerBuffer,
		buffer,
	)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("opening stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("starting stream: %w", err)
	}

	rec := &micRecording{
		stream:  stream,
		buffer:  buffer,
		preset:  preset,
		path:    filepath.Join(m.dir, "rec-"+uuid.NewString()+preset.Extension),
		stopped: make(chan struct{}),
		done:    make(chan struct{}),
		logger:  m.logger,
	}
	go rec.loop()

	m.logger.Debug("microphone capture started", "rate", preset.SampleRate, "channels", preset.Channels)
	return rec, nil
}

type micRecording struct {
	stream *portaudio.Stream
	buffer []int16
	preset domain.RecordingPreset
	path   string
	logger *slog.Logger

	samples []int16
	readErr error

	stopped  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	closed   sync.Once
}

func (r *micRecording) loop() {
	defer close(r.done)
	for {
		select {
		case <-r.stopped:
			return
		default:
		}

		if err := r.stream.Read(); err != nil {
			r.readErr = fmt.Errorf("reading from stream: %w", err)
			return
		}
		r.samples = append(r.samples, r.buffer...)
	}
}

func (r *micRecording) halt() {
	r.stopOnce.Do(func() {
		close(r.stopped)
		<-r.done
		r.stream.Stop()
	})
}

func (r *micRecording) Finish(_ context.Context) (string, error) {
	r.halt()

	if r.readErr != nil {
		return "", r.readErr
	}

	data := EncodeWAV(r.samples, r.preset.SampleRate, r.preset.Channels)
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing recording: %w", err)
	}

	r.logger.Debug("microphone capture finished", "samples", len(r.samples), "path", r.path)
	return r.path, nil
}

func (r *micRecording) Close() error {
	r.halt()
	var err error
	r.closed.Do(func() {
		err = r.stream.Close()
		portaudio.Terminate()
	})
	return err
}

// MicrophonePermission grants access when a default input device exists.
type MicrophonePermission struct {
	logger *slog.Logger
}

func NewMicrophonePermission(logger *slog.Logger) *MicrophonePermission {
	return &MicrophonePermission{logger: logger}
}

func (p *MicrophonePermission) RequestMicrophoneAccess(_ context.Context) (granted bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("permission check panicked", "panic", r)
			granted = false
		}
	}()

	if err := portaudio.Initialize(); err != nil {
		p.logger.Warn("portaudio unavailable", "error", err)
		return false
	}
	defer portaudio.Terminate()

	dev, err := portaudio.DefaultInputDevice()
	if err != nil || dev == nil || dev.MaxInputChannels < 1 {
		p.logger.Warn("no input device", "error", err)
		return false
	}
	return true
}
