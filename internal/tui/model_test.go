package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"voice-companion/internal/domain"
)

type fakeConversation struct {
	mu    sync.Mutex
	view  domain.View
	calls []string
	err   error
}

func (f *fakeConversation) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeConversation) Snapshot() domain.View { return f.view }
func (f *fakeConversation) StartRecording(context.Context) error {
	return f.record("mic")
}
func (f *fakeConversation) StopRecording(context.Context) error {
	return f.record("stop")
}
func (f *fakeConversation) Regenerate(context.Context) error {
	return f.record("regenerate")
}
func (f *fakeConversation) Replay() error { return f.record("replay") }
func (f *fakeConversation) Back()         { f.record("back") }

func (f *fakeConversation) lastCall() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

type fakeOnboarding struct {
	finished int
	err      error
}

func (f *fakeOnboarding) Finish(context.Context) error {
	f.finished++
	return f.err
}

func (f *fakeOnboarding) Pages() []domain.OnboardingPage {
	return domain.OnboardingPages()
}

func newModel(showOnboarding bool) (Model, *fakeConversation, *fakeOnboarding) {
	conv := &fakeConversation{view: domain.View{Stage: domain.StageIdle}}
	ob := &fakeOnboarding{}
	return New(context.Background(), conv, ob, showOnboarding), conv, ob
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, k string) (Model, tea.Msg) {
	t.Helper()
	updated, cmd := m.Update(key(k))
	var msg tea.Msg
	if cmd != nil {
		msg = cmd()
	}
	return updated.(Model), msg
}

func TestNewModel(t *testing.T) {
	m, _, _ := newModel(true)
	if m.screen != ScreenOnboarding {
		t.Error("first launch should show onboarding")
	}

	m, _, _ = newModel(false)
	if m.screen != ScreenHome {
		t.Error("completed onboarding should show home")
	}
}

func TestOnboardingFlow(t *testing.T) {
	m, _, ob := newModel(true)

	m, _ = press(t, m, "right")
	m, _ = press(t, m, "enter")
	if m.page != 2 {
		t.Fatalf("page = %d, want 2", m.page)
	}

	m, msg := press(t, m, "right")
	done, ok := msg.(OnboardingDoneMsg)
	if !ok {
		t.Fatalf("last page should finish onboarding, got %T", msg)
	}
	if ob.finished != 1 {
		t.Errorf("Finish calls = %d, want 1", ob.finished)
	}

	updated, _ := m.Update(done)
	if updated.(Model).screen != ScreenHome {
		t.Error("should show home after onboarding")
	}
}

func TestOnboardingSkipAndBack(t *testing.T) {
	m, _, ob := newModel(true)

	m, _ = press(t, m, "h")
	if m.page != 0 {
		t.Errorf("back on first page should stay, got %d", m.page)
	}

	_, msg := press(t, m, "s")
	if _, ok := msg.(OnboardingDoneMsg); !ok || ob.finished != 1 {
		t.Errorf("skip should finish onboarding, got %T", msg)
	}
}

func TestOnboardingWriteFailureStillShowsHome(t *testing.T) {
	m, _, _ := newModel(true)

	updated, cmd := m.Update(OnboardingDoneMsg{Err: errors.New("disk full")})
	model := updated.(Model)
	if model.screen != ScreenHome {
		t.Error("should show home even if the flag write failed")
	}
	if model.alert == "" || cmd == nil {
		t.Error("write failure should raise an alert")
	}
}

func TestHomeKeys(t *testing.T) {
	tests := []struct {
		stage domain.Stage
		key   string
		want  string
	}{
		{domain.StageIdle, " ", "mic"},
		{domain.StageRecording, " ", "stop"},
		{domain.StageResponded, "r", "regenerate"},
		{domain.StageResponded, "p", "replay"},
		{domain.StageResponded, "b", "back"},
		{domain.StageLoading, "esc", "back"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%q", tt.stage, tt.key), func(t *testing.T) {
			m, conv, _ := newModel(false)
			m.view = domain.View{Version: 1, Stage: tt.stage}

			press(t, m, tt.key)
			if got := conv.lastCall(); got != tt.want {
				t.Errorf("call = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuit(t *testing.T) {
	m, _, _ := newModel(false)
	_, msg := press(t, m, "q")
	if _, ok := msg.(tea.QuitMsg); !ok {
		t.Errorf("q should quit, got %T", msg)
	}
}

func TestViewMsgVersioning(t *testing.T) {
	m, _, _ := newModel(false)

	updated, _ := m.Update(ViewMsg{View: domain.View{Version: 3, Stage: domain.StageLoading, Text: domain.Placeholder}})
	m = updated.(Model)

	updated, _ = m.Update(ViewMsg{View: domain.View{Version: 2, Stage: domain.StageRecording}})
	m = updated.(Model)

	if m.view.Stage != domain.StageLoading || m.view.Version != 3 {
		t.Errorf("stale view applied: %+v", m.view)
	}

	if !strings.Contains(m.View(), domain.Placeholder) {
		t.Error("loading view should show the placeholder")
	}
}

func TestAlertClears(t *testing.T) {
	m, _, _ := newModel(false)

	updated, cmd := m.Update(AlertMsg{Message: "first"})
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("alert should schedule a clear")
	}
	firstSeq := m.alertSeq

	updated, _ = m.Update(AlertMsg{Message: "second"})
	m = updated.(Model)

	updated, _ = m.Update(ClearAlertMsg{Seq: firstSeq})
	m = updated.(Model)
	if m.alert != "second" {
		t.Errorf("old clear removed newer alert: %q", m.alert)
	}

	updated, _ = m.Update(ClearAlertMsg{Seq: m.alertSeq})
	if updated.(Model).alert != "" {
		t.Error("alert should clear")
	}
}

func TestActionErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantAlert bool
	}{
		{"invalid transition ignored", fmt.Errorf("mic: %w", domain.ErrInvalidTransition), false},
		{"stale ignored", domain.ErrStaleSession, false},
		{"pipeline error shown elsewhere", &domain.PipelineError{Kind: domain.ErrorNetwork, Op: "transcribe", Err: errors.New("502")}, false},
		{"unexpected error alerted", domain.ErrAlreadyRecording, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newModel(false)
			updated, _ := m.Update(ActionErrorMsg{Op: "mic", Err: tt.err})
			if got := updated.(Model).alert != ""; got != tt.wantAlert {
				t.Errorf("alert shown = %v, want %v", got, tt.wantAlert)
			}
		})
	}
}

func TestSpeakingAnimation(t *testing.T) {
	m, _, _ := newModel(false)
	m.view = domain.View{Version: 1, Stage: domain.StageResponded, Text: "こんにちは", Speaking: true}

	updated, _ := m.Update(animTickMsg{})
	m = updated.(Model)
	if m.frame != 1 {
		t.Errorf("frame = %d, want 1 while speaking", m.frame)
	}

	m.view.Speaking = false
	updated, _ = m.Update(animTickMsg{})
	if updated.(Model).frame != 0 {
		t.Error("animation should rest on the first frame")
	}
}

type recordingSender struct {
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) { r.msgs = append(r.msgs, msg) }

func TestSink(t *testing.T) {
	s := NewSink()
	s.StateChanged(domain.View{Version: 1})

	sender := &recordingSender{}
	s.Attach(sender)
	s.StateChanged(domain.View{Version: 2})
	s.Alert("hi")

	if len(sender.msgs) != 2 {
		t.Fatalf("msgs = %d, want 2 (events before Attach are dropped)", len(sender.msgs))
	}
	if v, ok := sender.msgs[0].(ViewMsg); !ok || v.View.Version != 2 {
		t.Errorf("first msg = %#v", sender.msgs[0])
	}
	if a, ok := sender.msgs[1].(AlertMsg); !ok || a.Message != "hi" {
		t.Errorf("second msg = %#v", sender.msgs[1])
	}
}
