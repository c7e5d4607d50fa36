package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"voice-companion/internal/application"
	"voice-companion/internal/domain"
)

const (
	ffmpegStartupWait = 250 * time.Millisecond
	ffmpegStopGrace   = 1200 * time.Millisecond
)

// FFmpegCapture records the default input device to a PCM WAV file by
// running ffmpeg.
type FFmpegCapture struct {
	command     string
	inputFormat string
	inputDevice string
	dir         string
	logger      *slog.Logger
}

func NewFFmpegCapture(command, inputFormat, inputDevice, dir string, logger *slog.Logger) *FFmpegCapture {
	if command == "" {
		command = "ffmpeg"
	}
	if inputFormat == "" {
		inputFormat = "pulse"
	}
	if inputDevice == "" {
		inputDevice = "default"
	}
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "companion")
	}
	return &FFmpegCapture{
		command:     command,
		inputFormat: inputFormat,
		inputDevice: inputDevice,
		dir:         dir,
		logger:      logger,
	}
}

func (c *FFmpegCapture) Name() string {
	return "ffmpeg"
}

func (c *FFmpegCapture) args(preset domain.RecordingPreset, path string) []string {
	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", c.inputFormat,
		"-i", c.inputDevice,
		"-ac", strconv.Itoa(preset.Channels),
		"-ar", strconv.Itoa(preset.SampleRate),
		"-c:a", "pcm_s16le",
		"-y",
		path,
	}
}

// Begin starts ffmpeg. Cancelling ctx during the startup wait kills the
// process; once Begin returns it is ended only by Finish or Close.
func (c *FFmpegCapture) Begin(ctx context.Context, preset domain.RecordingPreset) (application.Recording, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating recording dir: %w", err)
	}

	path := filepath.Join(c.dir, "rec-"+uuid.NewString()+preset.Extension)

	cmd := exec.Command(c.command, c.args(preset, path)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting ffmpeg: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	select {
	case err := <-waitErr:
		if err != nil {
			return nil, fmt.Errorf("ffmpeg exited before capture started: %w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, errors.New("ffmpeg exited before capture started")
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-waitErr
		_ = os.Remove(path)
		return nil, ctx.Err()
	case <-time.After(ffmpegStartupWait):
	}

	c.logger.Debug("ffmpeg capture started", "path", path, "rate", preset.SampleRate, "channels", preset.Channels)

	return &ffmpegRecording{
		path:    path,
		stderr:  &stderr,
		process: cmd.Process,
		waitErr: waitErr,
	}, nil
}

type ffmpegRecording struct {
	path    string
	stderr  *bytes.Buffer
	process *os.Process
	waitErr <-chan error

	stopOnce sync.Once
	stopErr  error

	mu       sync.Mutex
	finished bool
}

func (r *ffmpegRecording) stop() error {
	r.stopOnce.Do(func() {
		_ = r.process.Signal(os.Interrupt)

		select {
		case err, ok := <-r.waitErr:
			if ok {
				r.stopErr = normalizeStopErr(err)
			}
		case <-time.After(ffmpegStopGrace):
			_ = r.process.Kill()
			if err, ok := <-r.waitErr; ok {
				r.stopErr = normalizeStopErr(err)
			}
		}

		if r.stopErr != nil && r.stderr.Len() > 0 {
			r.stopErr = fmt.Errorf("%w: %s", r.stopErr, strings.TrimSpace(r.stderr.String()))
		}
	})
	return r.stopErr
}

func (r *ffmpegRecording) Finish(_ context.Context) (string, error) {
	if err := r.stop(); err != nil {
		return "", fmt.Errorf("stopping ffmpeg: %w", err)
	}

	if err := checkWAV(r.path); err != nil {
		return "", err
	}

	r.mu.Lock()
	r.finished = true
	r.mu.Unlock()

	return r.path, nil
}

// Close stops ffmpeg and removes the file unless Finish succeeded.
func (r *ffmpegRecording) Close() error {
	err := r.stop()

	r.mu.Lock()
	finished := r.finished
	r.mu.Unlock()

	if !finished {
		if rmErr := os.Remove(r.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}
	return err
}

// ffmpeg exits non-zero when interrupted; that is the normal stop path.
func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
