package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Audio      AudioConfig      `yaml:"audio"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Completion CompletionConfig `yaml:"completion"`
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Speech     SpeechConfig     `yaml:"speech"`
	Control    ControlConfig    `yaml:"control"`
	Pushover   PushoverConfig   `yaml:"pushover"`
	State      StateConfig      `yaml:"state"`
	Retry      RetryConfig      `yaml:"retry"`
	Log        LogConfig        `yaml:"log"`
}

type AudioConfig struct {
	// Backend is ffmpeg, microphone or file.
	Backend     string `yaml:"backend"`
	Consent     bool   `yaml:"microphone_consent"`
	Command     string `yaml:"command"`
	InputFormat string `yaml:"input_format"`
	InputDevice string `yaml:"input_device"`
	Dir         string `yaml:"dir"`
	ReplayPath  string `yaml:"replay_path"`
}

type OpenAIConfig struct {
	APIKey             string `yaml:"api_key"`
	BaseURL            string `yaml:"base_url"`
	TranscriptionModel string `yaml:"transcription_model"`
	ChatModel          string `yaml:"chat_model"`
	Language           string `yaml:"language"`
}

type CompletionConfig struct {
	// Provider is openai, anthropic or gemini.
	Provider string `yaml:"provider"`
}

type AnthropicConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type SpeechConfig struct {
	// Engine is command or silent.
	Engine   string  `yaml:"engine"`
	Command  string  `yaml:"command"`
	Voice    string  `yaml:"voice"`
	Language string  `yaml:"language"`
	Pitch    float64 `yaml:"pitch"`
	Rate     float64 `yaml:"rate"`
}

type ControlConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Addr          string `yaml:"addr"`
	AuthToken     string `yaml:"auth_token"`
	RatePerMinute int    `yaml:"rate_per_minute"`
}

type PushoverConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
}

type StateConfig struct {
	Path string `yaml:"path"`
}

type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Load reads the YAML file at path, expanding ${VAR} references from the
// environment first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is present. API keys
// are taken from the environment.
func Default() *Config {
	cfg := Config{
		OpenAI:    OpenAIConfig{APIKey: os.Getenv("OPENAI_API_KEY")},
		Anthropic: AnthropicConfig{APIKey: os.Getenv("ANTHROPIC_API_KEY")},
		Gemini:    GeminiConfig{APIKey: os.Getenv("GEMINI_API_KEY")},
	}
	cfg.setDefaults()
	return &cfg
}

func (c *Config) setDefaults() {
	if c.Audio.Backend == "" {
		c.Audio.Backend = "ffmpeg"
	}
	if c.Audio.Command == "" {
		c.Audio.Command = "ffmpeg"
	}
	if c.Audio.InputFormat == "" {
		c.Audio.InputFormat = defaultInputFormat()
	}
	if c.Audio.InputDevice == "" {
		c.Audio.InputDevice = defaultInputDevice()
	}
	if c.Audio.ReplayPath == "" {
		c.Audio.ReplayPath = "./audio"
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if c.OpenAI.TranscriptionModel == "" {
		c.OpenAI.TranscriptionModel = "whisper-1"
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if c.Completion.Provider == "" {
		c.Completion.Provider = "openai"
	}
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = "claude-sonnet-4-20250514"
	}
	if c.Anthropic.BaseURL == "" {
		c.Anthropic.BaseURL = "https://api.anthropic.com/v1"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash"
	}
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.Speech.Engine == "" {
		c.Speech.Engine = "command"
	}
	if c.Speech.Command == "" {
		c.Speech.Command = defaultSpeechCommand()
	}
	if c.Speech.Language == "" {
		c.Speech.Language = "ja-JP"
	}
	if c.Speech.Pitch == 0 {
		c.Speech.Pitch = 1.0
	}
	if c.Speech.Rate == 0 {
		c.Speech.Rate = 1.0
	}
	if c.Control.Addr == "" {
		c.Control.Addr = "127.0.0.1:8080"
	}
	if c.Control.RatePerMinute == 0 {
		c.Control.RatePerMinute = 30
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 1
	}
	if c.Retry.InitialDelay == 0 {
		c.Retry.InitialDelay = 100 * time.Millisecond
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = 5 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.File == "" {
		c.Log.File = "companion.log"
	}
}

// Validate rejects values the wiring cannot interpret.
func (c *Config) Validate() error {
	var errs []error

	switch c.Audio.Backend {
	case "ffmpeg", "microphone", "file":
	default:
		errs = append(errs, fmt.Errorf("audio.backend: unknown value %q", c.Audio.Backend))
	}

	switch c.Completion.Provider {
	case "openai", "anthropic", "gemini":
	default:
		errs = append(errs, fmt.Errorf("completion.provider: unknown value %q", c.Completion.Provider))
	}

	switch c.Speech.Engine {
	case "command", "silent":
	default:
		errs = append(errs, fmt.Errorf("speech.engine: unknown value %q", c.Speech.Engine))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown value %q", c.Log.Format))
	}

	if c.Pushover.Enabled && (c.Pushover.Token == "" || c.Pushover.UserKey == "") {
		errs = append(errs, fmt.Errorf("pushover: token and user_key are required when enabled"))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must be at least 1"))
	}

	return errors.Join(errs...)
}
