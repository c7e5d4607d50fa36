package tui

import "voice-companion/internal/domain"

// ViewMsg carries a conversation state change published by the sink.
type ViewMsg struct {
	View domain.View
}

// AlertMsg carries a transient alert published by the sink.
type AlertMsg struct {
	Message string
}

// ActionErrorMsg is returned by a conversation command that failed.
type ActionErrorMsg struct {
	Op  string
	Err error
}

// ClearAlertMsg clears the alert line if it is still the one with Seq.
type ClearAlertMsg struct {
	Seq int
}

// OnboardingDoneMsg is sent after the onboarding flag write.
type OnboardingDoneMsg struct {
	Err error
}

type animTickMsg struct{}
