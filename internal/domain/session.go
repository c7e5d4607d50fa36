package domain

import "time"

// Stage is the conversation lifecycle as seen by the UI.
type Stage string

const (
	StageIdle      Stage = "idle"
	StageRecording Stage = "recording"
	StageLoading   Stage = "loading"
	StageResponded Stage = "responded"
	StageError     Stage = "error"
)

// Placeholder is shown while the transcript and the reply are being produced.
const Placeholder = "考え中..."

// Session is one voice exchange, from recording start to reply playback.
type Session struct {
	ID         string
	Audio      string
	Transcript string
	Reply      string
	StartedAt  time.Time
}

// View is a snapshot of everything the front-end renders.
type View struct {
	Version   uint64 `json:"version"`
	Stage     Stage  `json:"stage"`
	SessionID string `json:"sessionId,omitempty"`
	Text      string `json:"text"`
	Speaking  bool   `json:"speaking"`
	Error     string `json:"error,omitempty"`
}
