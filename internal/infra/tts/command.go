package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"voice-companion/internal/domain"
)

const (
	baseWordsPerMinute = 175
	basePitch          = 50
)

// CommandSynthesizer speaks through a local TTS binary. espeak-ng (or espeak)
// and macOS say are supported.
type CommandSynthesizer struct {
	command string
	logger  *slog.Logger
}

func NewCommandSynthesizer(command string, logger *slog.Logger) (*CommandSynthesizer, error) {
	if command == "" {
		command = "espeak-ng"
	}
	resolved, err := exec.LookPath(command)
	if err != nil {
		return nil, fmt.Errorf("finding tts command %q: %w", command, err)
	}
	return &CommandSynthesizer{command: resolved, logger: logger}, nil
}

func (s *CommandSynthesizer) Speak(ctx context.Context, text string, opts domain.SpeechOptions) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	cmd := exec.CommandContext(ctx, s.command, Args(s.command, opts)...)
	cmd.Stdin = strings.NewReader(trimmed)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	s.logger.Debug("speaking", "command", filepath.Base(s.command), "chars", len([]rune(trimmed)))

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stderr.Len() > 0 {
			return fmt.Errorf("running %s: %w: %s", filepath.Base(s.command), err, strings.TrimSpace(stderr.String()))
		}
		return fmt.Errorf("running %s: %w", filepath.Base(s.command), err)
	}
	return nil
}

// Args builds the argument list for the given TTS binary. The text itself is
// read from stdin so replies starting with "-" are not parsed as flags.
// Pitch and rate are multipliers around 1.0.
func Args(command string, opts domain.SpeechOptions) []string {
	rate := scale(baseWordsPerMinute, opts.Rate)

	if filepath.Base(command) == "say" {
		args := []string{}
		if opts.Voice != "" {
			args = append(args, "-v", opts.Voice)
		}
		args = append(args, "-r", strconv.Itoa(rate), "-f", "-")
		return args
	}

	voice := opts.Voice
	if voice == "" {
		voice = espeakVoice(opts.Language)
	}

	args := []string{}
	if voice != "" {
		args = append(args, "-v", voice)
	}
	args = append(args,
		"-p", strconv.Itoa(clamp(scale(basePitch, opts.Pitch), 0, 99)),
		"-s", strconv.Itoa(clamp(rate, 80, 450)),
		"--stdin",
	)
	return args
}

// espeakVoice maps a BCP 47 tag like ja-JP to an espeak voice name.
func espeakVoice(language string) string {
	lang, _, _ := strings.Cut(language, "-")
	return strings.ToLower(lang)
}

func scale(base int, factor float64) int {
	if factor <= 0 {
		factor = 1
	}
	return int(float64(base)*factor + 0.5)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
