package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"voice-companion/internal/domain"
)

const (
	alertTimeout  = 5 * time.Second
	animationRate = 180 * time.Millisecond
)

// Conversation is the home screen's view of the pipeline.
type Conversation interface {
	Snapshot() domain.View
	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) error
	Regenerate(ctx context.Context) error
	Replay() error
	Back()
}

// Onboarding persists the first-run flag and supplies the carousel.
type Onboarding interface {
	Finish(ctx context.Context) error
	Pages() []domain.OnboardingPage
}

// Screen is the active top-level page.
type Screen int

const (
	ScreenOnboarding Screen = iota
	ScreenHome
)

// Frames of the speaking avatar. The first frame is the resting pose.
var avatarFrames = []string{"(◕‿◕)", "(◕o◕)", "(◕O◕)", "(◕o◕)"}

// Model is the root bubbletea model for the companion TUI.
type Model struct {
	ctx        context.Context
	conv       Conversation
	onboarding Onboarding

	screen Screen
	pages  []domain.OnboardingPage
	page   int

	view    domain.View
	spinner spinner.Model
	frame   int

	alert    string
	alertSeq int

	width  int
	height int
}

// New builds the model. showOnboarding selects the first screen.
func New(ctx context.Context, conv Conversation, onboarding Onboarding, showOnboarding bool) Model {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = lipgloss.NewStyle().Foreground(ColorAccent)

	m := Model{
		ctx:        ctx,
		conv:       conv,
		onboarding: onboarding,
		screen:     ScreenHome,
		pages:      onboarding.Pages(),
		view:       conv.Snapshot(),
		spinner:    s,
	}
	if showOnboarding && len(m.pages) > 0 {
		m.screen = ScreenOnboarding
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, animTick())
}

func animTick() tea.Cmd {
	return tea.Tick(animationRate, func(time.Time) tea.Msg {
		return animTickMsg{}
	})
}

func clearAlertCmd(seq int) tea.Cmd {
	return tea.Tick(alertTimeout, func(time.Time) tea.Msg {
		return ClearAlertMsg{Seq: seq}
	})
}

func (m Model) actionCmd(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		if err := fn(ctx); err != nil {
			return ActionErrorMsg{Op: op, Err: err}
		}
		return nil
	}
}

func (m Model) micCmd() tea.Cmd {
	return m.actionCmd("mic", m.conv.StartRecording)
}

func (m Model) stopCmd() tea.Cmd {
	return m.actionCmd("stop", m.conv.StopRecording)
}

func (m Model) regenerateCmd() tea.Cmd {
	return m.actionCmd("regenerate", m.conv.Regenerate)
}

func (m Model) replayCmd() tea.Cmd {
	conv := m.conv
	return m.actionCmd("replay", func(context.Context) error { return conv.Replay() })
}

func (m Model) backCmd() tea.Cmd {
	conv := m.conv
	return func() tea.Msg {
		conv.Back()
		return nil
	}
}

func (m Model) finishOnboardingCmd() tea.Cmd {
	ctx, ob := m.ctx, m.onboarding
	return func() tea.Msg {
		return OnboardingDoneMsg{Err: ob.Finish(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		if m.screen == ScreenOnboarding {
			return m.handleOnboardingKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ViewMsg:
		if msg.View.Version > m.view.Version {
			m.view = msg.View
		}
		return m, nil

	case AlertMsg:
		return m.showAlert(msg.Message)

	case ClearAlertMsg:
		if msg.Seq == m.alertSeq {
			m.alert = ""
		}
		return m, nil

	case ActionErrorMsg:
		// Permission and recording failures already raised an alert, and
		// network failures show up as the error stage.
		if errors.Is(msg.Err, domain.ErrInvalidTransition) ||
			errors.Is(msg.Err, domain.ErrStaleSession) ||
			domain.KindOf(msg.Err) != domain.ErrorUnknown {
			return m, nil
		}
		return m.showAlert(msg.Op + ": " + msg.Err.Error())

	case OnboardingDoneMsg:
		m.screen = ScreenHome
		if msg.Err != nil {
			return m.showAlert("設定を保存できませんでした")
		}
		return m, nil

	case animTickMsg:
		if m.view.Speaking {
			m.frame = (m.frame + 1) % len(avatarFrames)
		} else {
			m.frame = 0
		}
		return m, animTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) showAlert(message string) (tea.Model, tea.Cmd) {
	m.alertSeq++
	m.alert = message
	return m, clearAlertCmd(m.alertSeq)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyQuitUpper, KeyCtrlC:
		return m, tea.Quit

	case KeySpace:
		if m.view.Stage == domain.StageRecording {
			return m, m.stopCmd()
		}
		return m, m.micCmd()

	case KeyRegenerate:
		return m, m.regenerateCmd()

	case KeyReplay:
		return m, m.replayCmd()

	case KeyBack, KeyEsc:
		return m, m.backCmd()
	}

	return m, nil
}

func (m Model) handleOnboardingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyQuitUpper, KeyCtrlC:
		return m, tea.Quit

	case KeyRight, KeyL, KeyEnter, KeySpace:
		if m.page < len(m.pages)-1 {
			m.page++
			return m, nil
		}
		return m, m.finishOnboardingCmd()

	case KeyLeft, KeyH:
		if m.page > 0 {
			m.page--
		}
		return m, nil

	case KeySkip:
		return m, m.finishOnboardingCmd()
	}

	return m, nil
}

func (m Model) View() string {
	var body string
	if m.screen == ScreenOnboarding {
		body = m.renderOnboarding()
	} else {
		body = m.renderHome()
	}

	style := AppStyle
	if m.width > 0 {
		style = style.Width(m.width)
	}
	if m.height > 0 {
		style = style.Height(m.height)
	}
	return style.Render(body)
}

func (m Model) contentWidth() int {
	if m.width <= 8 {
		return 60
	}
	return m.width - 6
}

func (m Model) renderOnboarding() string {
	page := m.pages[m.page]

	var dots []string
	for i := range m.pages {
		if i == m.page {
			dots = append(dots, DotActiveStyle.Render("●"))
		} else {
			dots = append(dots, DotStyle.Render("○"))
		}
	}

	next := "next"
	if m.page == len(m.pages)-1 {
		next = "start"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render(page.Title),
		"",
		SubtitleStyle.Width(m.contentWidth()).Render(page.Subtitle),
		"",
		strings.Join(dots, " "),
		"",
		renderFooter([][2]string{{"→/enter", next}, {"←", "back"}, {"s", "skip"}, {"q", "quit"}}),
	)
}

func (m Model) renderHome() string {
	lines := []string{
		TitleStyle.Render("AI Companion"),
		m.renderStatus(),
		"",
		AvatarStyle.Render(avatarFrames[m.frame]),
		"",
		m.renderText(),
	}

	if m.view.Error != "" {
		lines = append(lines, "", ErrorStyle.Render(m.view.Error))
	}
	if m.alert != "" {
		lines = append(lines, "", AlertStyle.Render(m.alert))
	}

	lines = append(lines, "", m.renderKeys())
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderStatus() string {
	switch m.view.Stage {
	case domain.StageRecording:
		return RecordingStyle.Render("● REC")
	case domain.StageLoading:
		return m.spinner.View() + StatusStyle.Render(" thinking")
	case domain.StageResponded:
		if m.view.Speaking {
			return StatusStyle.Render("speaking")
		}
		return StatusStyle.Render("ready")
	case domain.StageError:
		return ErrorStyle.Render("something went wrong")
	default:
		return StatusStyle.Render("press space to talk")
	}
}

func (m Model) renderText() string {
	if m.view.Text == "" {
		return ""
	}
	style := TextStyle
	if m.view.Text == domain.Placeholder {
		style = PlaceholderStyle
	}
	return style.Width(m.contentWidth()).Render(m.view.Text)
}

func (m Model) renderKeys() string {
	switch m.view.Stage {
	case domain.StageRecording:
		return renderFooter([][2]string{{"space", "stop"}, {"esc", "cancel"}, {"q", "quit"}})
	case domain.StageLoading:
		return renderFooter([][2]string{{"esc", "cancel"}, {"q", "quit"}})
	case domain.StageResponded:
		return renderFooter([][2]string{{"r", "regenerate"}, {"p", "replay"}, {"b", "back"}, {"q", "quit"}})
	case domain.StageError:
		return renderFooter([][2]string{{"space", "talk"}, {"r", "retry"}, {"b", "back"}, {"q", "quit"}})
	default:
		return renderFooter([][2]string{{"space", "talk"}, {"q", "quit"}})
	}
}

func renderFooter(bindings [][2]string) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, FooterKeyStyle.Render(b[0])+" "+FooterDescStyle.Render(b[1]))
	}
	return strings.Join(parts, "  ")
}
