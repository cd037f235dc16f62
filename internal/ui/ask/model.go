package ask

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox-copilot/internal/adapter"
	"github.com/nhle/inbox-copilot/internal/inbox"
	"github.com/nhle/inbox-copilot/internal/keys"
	"github.com/nhle/inbox-copilot/internal/model"
	"github.com/nhle/inbox-copilot/internal/theme"
	"github.com/nhle/inbox-copilot/internal/ui/inboxlist"
)

const (
	searchTimeout = time.Minute
	historyLimit  = 200
)

// Searcher runs semantic search over the mailbox.
type Searcher interface {
	Search(ctx context.Context, query string) (*inbox.SearchResult, error)
}

// History persists the conversation between sessions.
type History interface {
	AppendMessage(ctx context.Context, role, content string) (*model.ChatMessage, error)
	GetConversation(ctx context.Context, limit int) ([]model.ChatMessage, error)
	ClearConversation(ctx context.Context) error
}

// CloseMsg signals the parent to close the ask view.
type CloseMsg struct{}

// HistoryLoadedMsg carries the stored conversation.
type HistoryLoadedMsg struct {
	Messages []model.ChatMessage
	Err      error
}

// AnswerMsg carries the rendered answer to one question. SaveErr is set
// when the question itself could not be stored.
type AnswerMsg struct {
	Query   string
	Answer  string
	Hits    []model.SearchHit
	Err     error
	SaveErr error
}

// maxPickable is how many hits can be opened with a number key.
const maxPickable = 9

// Model is the Ask the Inbox chat view.
type Model struct {
	search   Searcher
	history  History
	input    textarea.Model
	viewport viewport.Model
	messages []model.ChatMessage
	hits     []model.SearchHit
	waiting  bool
	notice   string
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates the ask view.
func New(search Searcher, history History, k *keys.KeyMap, width, height int) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about your inbox, e.g. \"who asked for an extension this week?\""
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.SetWidth(width - 4)
	ta.SetHeight(3)
	ta.CharLimit = 500
	ta.Focus()

	vp := viewport.New(width-4, viewportHeight(height))
	vp.Style = lipgloss.NewStyle()

	return Model{
		search:   search,
		history:  history,
		input:    ta,
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init loads the stored conversation.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.loadHistory())
}

// Update handles messages for the ask view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case HistoryLoadedMsg:
		if msg.Err != nil {
			m.notice = "Could not load earlier questions: " + msg.Err.Error()
		} else {
			m.messages = msg.Messages
		}
		m.refreshViewport()
		return m, nil

	case AnswerMsg:
		m.waiting = false
		if msg.SaveErr != nil {
			m.notice = "Could not save this conversation: " + msg.SaveErr.Error()
		}
		answer := msg.Answer
		if msg.Err != nil {
			answer = "Search failed: " + msg.Err.Error()
		} else {
			m.hits = msg.Hits
		}
		m.messages = append(m.messages, model.ChatMessage{
			Role:      model.RoleAssistant,
			Content:   answer,
			CreatedAt: time.Now(),
		})
		m.refreshViewport()
		if msg.Err != nil {
			return m, nil
		}
		return m, m.persist(model.RoleAssistant, answer)

	case persistFailedMsg:
		m.notice = "Could not save this conversation: " + msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, func() tea.Msg { return CloseMsg{} }

	case "ctrl+l":
		if m.waiting {
			return m, nil
		}
		m.messages = nil
		m.hits = nil
		m.notice = ""
		m.refreshViewport()
		h := m.history
		return m, func() tea.Msg {
			if err := h.ClearConversation(context.Background()); err != nil {
				return persistFailedMsg{err: err}
			}
			return nil
		}

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		if m.input.Value() == "" {
			if id, ok := m.HitID(int(msg.String()[0] - '0')); ok {
				return m, func() tea.Msg { return inboxlist.SelectedEmailMsg{ID: id} }
			}
		}

	case "enter":
		if m.waiting {
			return m, nil
		}
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}

		m.input.Reset()
		m.notice = ""
		m.messages = append(m.messages, model.ChatMessage{
			Role:      model.RoleUser,
			Content:   text,
			CreatedAt: time.Now(),
		})
		m.waiting = true
		m.refreshViewport()

		return m, m.ask(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

type persistFailedMsg struct{ err error }

func (m Model) persist(role, content string) tea.Cmd {
	h := m.history
	return func() tea.Msg {
		if _, err := h.AppendMessage(context.Background(), role, content); err != nil {
			return persistFailedMsg{err: err}
		}
		return nil
	}
}

func (m Model) loadHistory() tea.Cmd {
	h := m.history
	return func() tea.Msg {
		msgs, err := h.GetConversation(context.Background(), historyLimit)
		return HistoryLoadedMsg{Messages: msgs, Err: err}
	}
}

// ask stores the question, then searches, so the stored conversation
// keeps each question ahead of its answer.
func (m Model) ask(query string) tea.Cmd {
	s := m.search
	h := m.history
	return func() tea.Msg {
		_, saveErr := h.AppendMessage(context.Background(), model.RoleUser, query)

		ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
		defer cancel()
		res, err := s.Search(ctx, query)
		if err != nil {
			return AnswerMsg{Query: query, Err: err, SaveErr: saveErr}
		}
		return AnswerMsg{
			Query:   query,
			Answer:  FormatHits(res.Results, time.Now()),
			Hits:    res.Results,
			SaveErr: saveErr,
		}
	}
}

// HitID returns the email ID of the n-th (1-based) hit of the last answer.
func (m Model) HitID(n int) (string, bool) {
	if n < 1 || n > len(m.hits) || n > maxPickable {
		return "", false
	}
	return m.hits[n-1].ID.String(), true
}

// FormatHits renders search hits as the assistant's answer. Each hit is
// adapted for display, then annotated with the sender address and the
// relevance score the backend attached.
func FormatHits(hits []model.SearchHit, now time.Time) string {
	if len(hits) == 0 {
		return "No emails matched that question."
	}

	var b strings.Builder
	if len(hits) == 1 {
		b.WriteString("Found 1 matching email:\n")
	} else {
		fmt.Fprintf(&b, "Found %d matching emails:\n", len(hits))
	}

	for i, h := range hits {
		d := adapter.AdaptOneAt(h.BackendEmail, now)
		sender := d.StudentName
		if h.SenderEmail != nil && *h.SenderEmail != "" && *h.SenderEmail != d.StudentName {
			sender = fmt.Sprintf("%s <%s>", d.StudentName, *h.SenderEmail)
		}
		fmt.Fprintf(&b, "\n%d. %s (#%s)\n", i+1, d.Subject, d.ID)
		fmt.Fprintf(&b, "   %s · %s · %s\n", sender, adapter.CategoryLabel(d.Category), d.Timestamp)
		fmt.Fprintf(&b, "   relevance %.0f%% · %s\n",
			h.Relevance*100, adapter.PriorityLevelOf(d.Priority).Label())
		if d.Summary != "" {
			fmt.Fprintf(&b, "   %s\n", d.Summary)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// refreshViewport re-renders the conversation content and scrolls to bottom.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

func (m Model) renderConversation() string {
	if len(m.messages) == 0 {
		return lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("Ask a question about your students' emails. " +
				"Answers come from semantic search over your mailbox.")
	}

	var sections []string

	roleStyle := lipgloss.NewStyle().Bold(true)
	userStyle := roleStyle.Foreground(theme.ColorBlue)
	assistantStyle := roleStyle.Foreground(theme.ColorGreen)
	contentStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	for _, msg := range m.messages {
		label := assistantStyle.Render("Copilot:")
		if msg.Role == model.RoleUser {
			label = userStyle.Render("You:")
		}
		sections = append(sections, label, contentStyle.Render(msg.Content), "")
	}

	if m.waiting {
		sections = append(sections, theme.HelpStyle.Render("Searching..."))
	}

	return strings.Join(sections, "\n")
}

// View renders the ask view.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-6, 80), 1)))

	parts := []string{
		titleStyle.Render("Ask the Inbox"),
		m.viewport.View(),
		separator,
		m.input.View(),
	}
	hint := "enter ask · pgup/pgdn scroll · ctrl+l clear history · esc back"
	if n := min(len(m.hits), maxPickable); n > 0 {
		hint = fmt.Sprintf("1-%d open result · ", n) + hint
	}
	if m.notice != "" {
		hint = theme.WarningStyle.Render(m.notice)
	}
	parts = append(parts, theme.HelpStyle.Render(hint))

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the ask view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(width - 4)
	m.viewport.Width = width - 4
	m.viewport.Height = viewportHeight(height)
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// viewportHeight leaves room for the title, input area, hint, and borders.
func viewportHeight(height int) int {
	h := height - 10
	if h < 4 {
		return 4
	}
	return h
}
