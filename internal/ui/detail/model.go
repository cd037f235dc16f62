package detail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox-copilot/internal/adapter"
	"github.com/nhle/inbox-copilot/internal/keys"
	"github.com/nhle/inbox-copilot/internal/model"
	"github.com/nhle/inbox-copilot/internal/theme"
)

// requestTimeout bounds each backend call made from this view. Draft
// generation goes through the language model, so it gets longer.
const (
	requestTimeout  = 30 * time.Second
	generateTimeout = 2 * time.Minute
)

// Service is the part of the email service the detail view drives.
type Service interface {
	GetRaw(ctx context.Context, id string) (*model.BackendEmail, error)
	MarkRead(ctx context.Context, id string) error
	GenerateReply(ctx context.Context, id, preferences string) (*model.DraftReply, error)
	ClassifyEmail(ctx context.Context, id string) (*model.Classification, error)
}

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// DetailLoadedMsg carries the fetched backend record.
type DetailLoadedMsg struct {
	ID    string
	Email *model.BackendEmail
	Err   error
}

// MarkedReadMsg reports the outcome of marking an email read.
type MarkedReadMsg struct {
	ID  string
	Err error
}

// ReplyGeneratedMsg carries a freshly generated draft.
type ReplyGeneratedMsg struct {
	ID    string
	Draft *model.DraftReply
	Err   error
}

// ClassifiedMsg carries the classifier's verdict.
type ClassifiedMsg struct {
	ID     string
	Result *model.Classification
	Err    error
}

// ExportDraftMsg asks the parent to write the current draft to disk.
type ExportDraftMsg struct {
	Email model.BackendEmail
	Draft string
}

// Model is the email detail view component.
type Model struct {
	svc          Service
	raw          *model.BackendEmail
	email        *model.EmailWithContent
	reasoning    string
	preferences  model.Preferences
	viewport     viewport.Model
	spinner      spinner.Model
	keys         *keys.KeyMap
	busy         string
	status       string
	loadErr      error
	loading      bool
	width        int
	height       int
	autoTriggers map[string]bool
}

// New creates a new detail view model.
func New(svc Service, k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	return Model{
		svc:          svc,
		preferences:  model.DefaultPreferences(),
		viewport:     vp,
		spinner:      sp,
		keys:         k,
		width:        width,
		height:       height,
		autoTriggers: make(map[string]bool),
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Open starts loading the email with the given ID.
func (m *Model) Open(id string) tea.Cmd {
	m.loading = true
	m.loadErr = nil
	m.status = ""
	m.busy = ""
	m.reasoning = ""
	m.raw = nil
	m.email = nil
	return tea.Batch(m.spinner.Tick, m.load(id))
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DetailLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.loadErr = msg.Err
			return m, nil
		}
		m.setEmail(msg.Email)
		if m.shouldAutoGenerate() {
			m.autoTriggers[msg.ID] = true
			return m, m.generate()
		}
		return m, nil

	case MarkedReadMsg:
		m.busy = ""
		if msg.Err != nil {
			m.status = "Could not mark as read: " + msg.Err.Error()
			return m, nil
		}
		if m.raw != nil && m.raw.ID.String() == msg.ID {
			m.raw.IsRead = true
			m.setEmail(m.raw)
		}
		m.status = "Marked as read."
		return m, nil

	case ReplyGeneratedMsg:
		m.busy = ""
		if msg.Err != nil {
			m.status = "Could not generate a reply: " + msg.Err.Error()
			return m, nil
		}
		if m.raw != nil && m.raw.ID.String() == msg.ID {
			reply := msg.Draft.Reply
			m.raw.DraftReply = &reply
			m.reasoning = msg.Draft.Reasoning
			m.setEmail(m.raw)
		}
		m.status = "Draft reply ready. Press x to export it."
		return m, nil

	case ClassifiedMsg:
		m.busy = ""
		if msg.Err != nil {
			m.status = "Could not classify: " + msg.Err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("Classified as %s (%s tone).",
			adapter.CategoryLabel(msg.Result.Category), msg.Result.Tone)
		return m, m.load(msg.ID)

	case spinner.TickMsg:
		if !m.loading && m.busy == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// handleKey runs the action bound to msg. handled is false for keys the
// viewport should see.
func (m *Model) handleKey(msg tea.KeyMsg) (cmd tea.Cmd, handled bool) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return func() tea.Msg { return BackMsg{} }, true
	}

	if m.raw == nil || m.busy != "" {
		return nil, false
	}
	id := m.raw.ID.String()
	svc := m.svc

	switch {
	case key.Matches(msg, m.keys.MarkRead):
		m.busy = "Marking as read"
		return tea.Batch(m.spinner.Tick, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			return MarkedReadMsg{ID: id, Err: svc.MarkRead(ctx, id)}
		}), true

	case key.Matches(msg, m.keys.Generate):
		return m.generate(), true

	case key.Matches(msg, m.keys.Classify):
		m.busy = "Classifying"
		return tea.Batch(m.spinner.Tick, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
			defer cancel()
			res, err := svc.ClassifyEmail(ctx, id)
			return ClassifiedMsg{ID: id, Result: res, Err: err}
		}), true

	case key.Matches(msg, m.keys.Export):
		if m.email == nil || m.email.DraftReply == nil {
			m.status = "No draft to export. Press g to generate one."
			return nil, true
		}
		raw := *m.raw
		draft := *m.email.DraftReply
		return func() tea.Msg { return ExportDraftMsg{Email: raw, Draft: draft} }, true
	}

	return nil, false
}

// generate requests a draft reply using the current preferences.
func (m *Model) generate() tea.Cmd {
	id := m.raw.ID.String()
	svc := m.svc
	prefs := m.preferences.ReplyPreferences()
	m.busy = "Generating reply"
	m.status = ""
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
		defer cancel()
		draft, err := svc.GenerateReply(ctx, id, prefs)
		return ReplyGeneratedMsg{ID: id, Draft: draft, Err: err}
	})
}

func (m Model) shouldAutoGenerate() bool {
	return m.preferences.AutoGenerate &&
		m.raw != nil &&
		m.raw.DraftReply == nil &&
		!m.autoTriggers[m.raw.ID.String()]
}

func (m Model) load(id string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		raw, err := svc.GetRaw(ctx, id)
		return DetailLoadedMsg{ID: id, Email: raw, Err: err}
	}
}

func (m *Model) setEmail(raw *model.BackendEmail) {
	m.raw = raw
	e := adapter.AdaptOneWithContent(*raw)
	m.email = &e
	m.viewport.SetContent(m.renderContent())
}

// View renders the detail view.
func (m Model) View() string {
	centered := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case m.loading:
		return centered.Render(m.spinner.View() + " Loading email...")
	case m.loadErr != nil:
		return centered.Render(theme.ErrorStyle.Render("Could not load email: "+m.loadErr.Error()) +
			"\n\nPress esc to go back.")
	case m.email == nil:
		return centered.Render("No email selected")
	}

	status := m.status
	if m.busy != "" {
		status = m.spinner.View() + " " + m.busy + "..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		theme.HelpStyle.Render(status),
	)
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.email == nil {
		return ""
	}
	e := m.email
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(e.Subject))

	level := adapter.PriorityLevelOf(e.Priority)
	badgeLine := lipgloss.JoinHorizontal(lipgloss.Top,
		theme.CategoryStyle(e.Category).Render(adapter.CategoryLabel(e.Category)),
		"  ",
		theme.PriorityBar(e.Priority, 10),
		" ",
		lipgloss.NewStyle().Foreground(theme.PriorityColor(level)).Render(level.Label()),
		"  ",
		theme.EmotionGlyph(e.Emotion),
		" ",
		theme.DimmedStyle.Render(adapter.EmotionLabel(e.Emotion)),
	)
	sections = append(sections, badgeLine, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	from := e.StudentName
	if m.raw.SenderEmail != nil && *m.raw.SenderEmail != "" {
		from = fmt.Sprintf("%s <%s>", e.StudentName, *m.raw.SenderEmail)
	}
	sections = append(sections,
		fmt.Sprintf("%s     %s", metaStyle.Render("From:"), valStyle.Render(from)),
		fmt.Sprintf("%s %s", metaStyle.Render("Received:"), valStyle.Render(e.Timestamp)),
	)
	if e.Unread {
		sections = append(sections, fmt.Sprintf("%s   %s", metaStyle.Render("Status:"), theme.UnreadMarker+" unread"))
	}
	if m.raw.RiskFlag && m.preferences.WellbeingAlerts {
		sections = append(sections, "", theme.WarningStyle.Render(
			"⚠ This student may be in distress. Consider reaching out directly."))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 1)))
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)

	sections = append(sections, "", separator, "", headerStyle.Render("Summary"), e.Summary)

	sections = append(sections, "", separator, "", headerStyle.Render("Message"))
	if e.BodyContent != nil {
		sections = append(sections, wrap(adapter.PlainText(*e.BodyContent), m.width-4))
	} else {
		sections = append(sections, theme.HelpStyle.Render("No message body"))
	}

	sections = append(sections, "", separator, "", headerStyle.Render("Draft Reply"))
	if e.DraftReply != nil {
		sections = append(sections, wrap(*e.DraftReply, m.width-4))
		if m.reasoning != "" {
			sections = append(sections, "", theme.HelpStyle.Render("Why: "+m.reasoning))
		}
	} else {
		sections = append(sections, theme.HelpStyle.Render("No draft yet. Press g to generate one."))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetPreferences updates the reply preferences used for generation.
func (m *Model) SetPreferences(p model.Preferences) {
	m.preferences = p
	if m.email != nil {
		m.viewport.SetContent(m.renderContent())
	}
}

// SetStatus shows a one-line message under the email.
func (m *Model) SetStatus(s string) {
	m.status = s
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.email != nil {
		m.viewport.SetContent(m.renderContent())
	}
}

// wrap soft-wraps text to width columns.
func wrap(text string, width int) string {
	if width < 20 {
		width = 20
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}
