package digest

import (
	"context"
	"fmt"
	"sort"
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

const (
	generateTimeout = 2 * time.Minute
	historySize     = 30
)

// Generator produces a digest on the backend.
type Generator interface {
	GenerateDailyDigest(ctx context.Context, date string) (*model.Digest, error)
}

// History stores generated digests locally.
type History interface {
	SaveDigest(ctx context.Context, date string, d model.Digest) (*model.DigestRecord, error)
	ListDigests(ctx context.Context, limit int) ([]model.DigestRecord, error)
}

// CloseMsg signals the parent to close the digest view.
type CloseMsg struct{}

// HistoryLoadedMsg carries stored digests, newest first.
type HistoryLoadedMsg struct {
	Records []model.DigestRecord
	Err     error
}

// GeneratedMsg carries a freshly generated and stored digest.
type GeneratedMsg struct {
	Record *model.DigestRecord
	Err    error
}

// Model is the daily digest view. It shows one stored digest at a time;
// [ and ] step through older and newer ones.
type Model struct {
	gen        Generator
	history    History
	records    []model.DigestRecord
	index      int
	viewport   viewport.Model
	spinner    spinner.Model
	keys       *keys.KeyMap
	generating bool
	loaded     bool
	status     string
	width      int
	height     int
}

// New creates the digest view.
func New(gen Generator, history History, k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	return Model{
		gen:      gen,
		history:  history,
		viewport: vp,
		spinner:  sp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init loads the stored digests.
func (m Model) Init() tea.Cmd {
	h := m.history
	return func() tea.Msg {
		recs, err := h.ListDigests(context.Background(), historySize)
		return HistoryLoadedMsg{Records: recs, Err: err}
	}
}

// Update handles messages for the digest view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case HistoryLoadedMsg:
		m.loaded = true
		if msg.Err != nil {
			m.status = "Could not load digest history: " + msg.Err.Error()
			return m, nil
		}
		m.records = msg.Records
		m.index = 0
		m.refresh()
		return m, nil

	case GeneratedMsg:
		m.generating = false
		if msg.Err != nil {
			m.status = "Could not generate digest: " + msg.Err.Error()
			return m, nil
		}
		m.records = append([]model.DigestRecord{*msg.Record}, m.records...)
		if len(m.records) > historySize {
			m.records = m.records[:historySize]
		}
		m.index = 0
		m.status = "Digest generated."
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.generating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return CloseMsg{} }
		case key.Matches(msg, m.keys.Generate):
			if m.generating {
				return m, nil
			}
			return m, m.Generate(time.Now().Format("2006-01-02"))
		case key.Matches(msg, m.keys.PrevPage):
			if m.index < len(m.records)-1 {
				m.index++
				m.refresh()
			}
			return m, nil
		case key.Matches(msg, m.keys.NextPage):
			if m.index > 0 {
				m.index--
				m.refresh()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// Generate asks the backend for the digest of date and stores the result.
func (m *Model) Generate(date string) tea.Cmd {
	m.generating = true
	m.status = ""
	gen, h := m.gen, m.history
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
		defer cancel()
		d, err := gen.GenerateDailyDigest(ctx, date)
		if err != nil {
			return GeneratedMsg{Err: err}
		}
		rec, err := h.SaveDigest(ctx, date, *d)
		if err != nil {
			return GeneratedMsg{Err: fmt.Errorf("saving digest: %w", err)}
		}
		return GeneratedMsg{Record: rec}
	})
}

func (m *Model) refresh() {
	if len(m.records) == 0 {
		m.viewport.SetContent("")
		return
	}
	m.viewport.SetContent(Render(m.records[m.index], m.width-4))
	m.viewport.GotoTop()
}

// View renders the digest view.
func (m Model) View() string {
	centered := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.generating && len(m.records) == 0 {
		return centered.Render(m.spinner.View() + " Generating today's digest...")
	}
	if len(m.records) == 0 {
		text := "No digests yet.\n\nPress g to generate today's digest."
		if !m.loaded {
			text = "Loading digests..."
		}
		if m.status != "" {
			text = m.status + "\n\n" + text
		}
		return centered.Render(text)
	}

	footer := fmt.Sprintf("digest %d of %d · [ older · ] newer · g generate · esc back",
		m.index+1, len(m.records))
	switch {
	case m.generating:
		footer = m.spinner.View() + " Generating..."
	case m.status != "":
		footer = m.status + " · " + footer
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		theme.HelpStyle.Render(footer),
	)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.refresh()
}

// Render formats a stored digest for the terminal.
func Render(rec model.DigestRecord, width int) string {
	if width < 30 {
		width = 30
	}
	d := rec.Digest

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)
	body := lipgloss.NewStyle().Width(width)

	title := "Daily Digest"
	if rec.Date != "" {
		title += " · " + rec.Date
	}
	sections := []string{
		titleStyle.Render(title),
		theme.HelpStyle.Render("Generated " + rec.CreatedAt.Local().Format("Jan 2, 2006 3:04 PM")),
		"",
	}

	if d.Summary != "" {
		sections = append(sections, body.Render(d.Summary), "")
	} else if d.Text != "" {
		sections = append(sections, body.Render(d.Text), "")
	}

	if s := d.Statistics; s != nil {
		sections = append(sections, headerStyle.Render("Statistics"),
			fmt.Sprintf("%d emails · %s %d · %s %d · %s %d",
				s.TotalEmails,
				lipgloss.NewStyle().Foreground(theme.ColorRed).Render("high"), s.PriorityDistribution.High,
				lipgloss.NewStyle().Foreground(theme.ColorYellow).Render("medium"), s.PriorityDistribution.Medium,
				lipgloss.NewStyle().Foreground(theme.ColorGreen).Render("low"), s.PriorityDistribution.Low,
			), "")
	}

	if len(d.Categories) > 0 {
		sections = append(sections, headerStyle.Render("By category"))
		names := make([]string, 0, len(d.Categories))
		for c := range d.Categories {
			names = append(names, c)
		}
		sort.Slice(names, func(i, j int) bool {
			if d.Categories[names[i]] != d.Categories[names[j]] {
				return d.Categories[names[i]] > d.Categories[names[j]]
			}
			return names[i] < names[j]
		})
		for _, c := range names {
			sections = append(sections, fmt.Sprintf("  %-16s %3d", adapter.CategoryLabel(c), d.Categories[c]))
		}
		sections = append(sections, "")
	}

	sections = appendList(sections, headerStyle.Render("Needs attention"), d.HighPriority, body)
	sections = appendList(sections, headerStyle.Render("Common themes"), d.CommonThemes, body)
	sections = appendList(sections, headerStyle.Render("Recommendations"), d.Recommendations, body)

	return strings.TrimRight(strings.Join(sections, "\n"), "\n")
}

func appendList(sections []string, header string, items []string, body lipgloss.Style) []string {
	if len(items) == 0 {
		return sections
	}
	sections = append(sections, header)
	for _, it := range items {
		sections = append(sections, body.Render("  • "+it))
	}
	return append(sections, "")
}
