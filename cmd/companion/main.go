package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	charmlog "github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"voice-companion/config"
)

const version = "0.1.0"

type CLI struct {
	Config  string           `help:"Path to config file." default:"config.yaml" type:"path"`
	Version kong.VersionFlag `help:"Print version and exit."`

	Run             RunCmd             `cmd:"" default:"1" help:"Start the interactive companion."`
	Serve           ServeCmd           `cmd:"" help:"Run headless with only the HTTP control API."`
	Ask             AskCmd             `cmd:"" help:"Run one exchange against a recorded WAV file."`
	ResetOnboarding ResetOnboardingCmd `cmd:"" name:"reset-onboarding" help:"Show the onboarding pages again on next start."`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("companion"),
		kong.Description("Push-to-talk voice companion: record, transcribe, reply, speak."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)
	ctx.FatalIfErrorf(ctx.Run(&cli))
}

// loadConfig reads the config file, falling back to defaults plus
// environment keys when the file does not exist.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		cfg = config.Default()
		return cfg, cfg.Validate()
	}
	return nil, err
}

func setupLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	if cfg.Format == "json" {
		var level slog.Level
		switch strings.ToLower(cfg.Level) {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}

	handler := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	level, err := charmlog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = charmlog.InfoLevel
	}
	handler.SetLevel(level)

	return slog.New(handler)
}

// openLogFile keeps log output off the terminal while the TUI owns it.
func openLogFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}
