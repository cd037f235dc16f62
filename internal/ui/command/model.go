package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox-copilot/internal/theme"
)

// Entry describes one palette command.
type Entry struct {
	Name string
	Args string
	Help string
}

// Commands lists everything the palette understands, in display order.
var Commands = []Entry{
	{Name: "inbox", Help: "show all emails"},
	{Name: "category", Args: "<name>", Help: "filter by category (clarification, extension, logistics, grades, urgent, honor)"},
	{Name: "unread", Help: "toggle unread-only"},
	{Name: "sync", Help: "sync the mailbox now"},
	{Name: "classify-all", Help: "classify every unprocessed email"},
	{Name: "ask", Help: "open Ask the Inbox"},
	{Name: "digest", Help: "open the daily digest"},
	{Name: "settings", Help: "edit reply and alert settings"},
	{Name: "whoami", Help: "show the signed-in account"},
	{Name: "logout", Help: "sign out and forget the session"},
	{Name: "help", Help: "show keyboard shortcuts"},
	{Name: "quit", Help: "exit"},
}

// CommandMsg is emitted when the user executes a command.
type CommandMsg struct {
	Name string
	Arg  string
}

// Parse splits palette input into a command name and its argument. Names
// are case-insensitive; a leading ':' is ignored.
func Parse(input string) CommandMsg {
	input = strings.TrimPrefix(strings.TrimSpace(input), ":")
	name, arg, _ := strings.Cut(strings.TrimSpace(input), " ")
	return CommandMsg{
		Name: strings.ToLower(name),
		Arg:  strings.TrimSpace(arg),
	}
}

// Matching returns the commands whose name starts with prefix.
func Matching(prefix string) []Entry {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	var out []Entry
	for _, c := range Commands {
		if strings.HasPrefix(c.Name, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command, tab to complete"
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	names := make([]string, len(Commands))
	for i, c := range Commands {
		names[i] = c.Name
	}
	ti.SetSuggestions(names)
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		parsed := Parse(m.input.Value())
		m.input.Reset()
		if parsed.Name == "" {
			return m, nil
		}
		return m, func() tea.Msg { return parsed }
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette with the commands matching the input.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	lines := []string{titleStyle.Render("Command Palette"), m.input.View(), ""}

	name, _, _ := strings.Cut(strings.TrimSpace(m.input.Value()), " ")
	nameStyle := lipgloss.NewStyle().Foreground(theme.ColorBlue)
	for _, c := range Matching(name) {
		usage := c.Name
		if c.Args != "" {
			usage += " " + c.Args
		}
		lines = append(lines, nameStyle.Render(padRight(usage, 18))+" "+theme.HelpStyle.Render(c.Help))
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
