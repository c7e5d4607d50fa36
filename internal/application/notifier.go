package application

import "voice-companion/internal/domain"

// EventSink receives state changes and transient alerts for the front-end.
type EventSink interface {
	StateChanged(view domain.View)
	Alert(message string)
}

type NoopSink struct{}

func (n *NoopSink) StateChanged(_ domain.View) {}
func (n *NoopSink) Alert(_ string)             {}

// MultiSink fans events out to several sinks in order.
type MultiSink []EventSink

func (m MultiSink) StateChanged(view domain.View) {
	for _, s := range m {
		s.StateChanged(view)
	}
}

func (m MultiSink) Alert(message string) {
	for _, s := range m {
		s.Alert(message)
	}
}
