package audio

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
)

// CommandPermission grants microphone access when the user consented in
// config and the capture binary can be found.
type CommandPermission struct {
	consent  bool
	command  string
	lookPath func(string) (string, error)
	logger   *slog.Logger
}

func NewCommandPermission(consent bool, command string, logger *slog.Logger) *CommandPermission {
	if command == "" {
		command = "ffmpeg"
	}
	return &CommandPermission{
		consent:  consent,
		command:  command,
		lookPath: exec.LookPath,
		logger:   logger,
	}
}

func (p *CommandPermission) RequestMicrophoneAccess(_ context.Context) (granted bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("permission check panicked", "panic", r)
			granted = false
		}
	}()

	if !p.consent {
		p.logger.Warn("microphone access not granted in config")
		return false
	}

	if _, err := p.lookPath(p.command); err != nil {
		p.logger.Warn("capture command not found", "command", p.command, "error", err)
		return false
	}

	return true
}

// DirPermission grants access when the replay directory (or file) exists.
type DirPermission struct {
	path   string
	logger *slog.Logger
}

func NewDirPermission(path string, logger *slog.Logger) *DirPermission {
	return &DirPermission{path: path, logger: logger}
}

func (p *DirPermission) RequestMicrophoneAccess(_ context.Context) (granted bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("permission check panicked", "panic", r)
			granted = false
		}
	}()

	if _, err := os.Stat(p.path); err != nil {
		p.logger.Warn("replay source unavailable", "path", p.path, "error", err)
		return false
	}
	return true
}
