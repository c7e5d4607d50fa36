package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"voice-companion/internal/domain"
)

// Sender is the part of *tea.Program the sink needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Sink forwards conversation events into a running bubbletea program.
// Events published before Attach are dropped.
type Sink struct {
	mu     sync.RWMutex
	sender Sender
}

func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) Attach(sender Sender) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sender = sender
}

func (s *Sink) StateChanged(view domain.View) {
	s.send(ViewMsg{View: view})
}

func (s *Sink) Alert(message string) {
	s.send(AlertMsg{Message: message})
}

func (s *Sink) send(msg tea.Msg) {
	s.mu.RLock()
	sender := s.sender
	s.mu.RUnlock()
	if sender != nil {
		sender.Send(msg)
	}
}
