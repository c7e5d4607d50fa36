package domain

import "sync"

// RecordingPreset describes how a platform recorder captures audio.
type RecordingPreset struct {
	Name       string
	Container  string
	Extension  string
	SampleRate int
	Channels   int
	BitDepth   int
	BitRate    int
}

var (
	PresetDarwin = RecordingPreset{
		Name:       "darwin",
		Container:  "wav",
		Extension:  ".wav",
		SampleRate: 44100,
		Channels:   2,
		BitDepth:   16,
		BitRate:    128000,
	}

	PresetLinux = RecordingPreset{
		Name:       "linux",
		Container:  "wav",
		Extension:  ".wav",
		SampleRate: 16000,
		Channels:   1,
		BitDepth:   16,
		BitRate:    256000,
	}
)

// PresetFor returns the compiled-in preset for a GOOS value.
func PresetFor(goos string) RecordingPreset {
	if goos == "darwin" {
		return PresetDarwin
	}
	return PresetLinux
}

// AudioMode is the process-wide routing mode of the audio device.
type AudioMode string

const (
	AudioModePlayback AudioMode = "playback"
	AudioModeRecord   AudioMode = "record"
)

// AudioSession holds the shared audio mode. Only the recorder controller
// mutates it; everything else reads.
type AudioSession struct {
	mu   sync.Mutex
	mode AudioMode
}

func NewAudioSession() *AudioSession {
	return &AudioSession{mode: AudioModePlayback}
}

func (s *AudioSession) Mode() AudioMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Swap sets the mode and returns the previous one.
func (s *AudioSession) Swap(mode AudioMode) AudioMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.mode
	s.mode = mode
	return prev
}
