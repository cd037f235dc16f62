package inboxlist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox-copilot/internal/adapter"
	"github.com/nhle/inbox-copilot/internal/inbox"
	"github.com/nhle/inbox-copilot/internal/keys"
	"github.com/nhle/inbox-copilot/internal/model"
	"github.com/nhle/inbox-copilot/internal/theme"
)

// loadTimeout bounds one dashboard refresh.
const loadTimeout = 30 * time.Second

// Lister is the part of the email service the dashboard reads from.
type Lister interface {
	ListEmails(ctx context.Context, filter model.ListFilter) (*inbox.EmailPage, error)
	Categories(ctx context.Context) ([]model.CategoryCount, error)
}

// EmailsLoadedMsg is sent when a page of emails has been fetched.
type EmailsLoadedMsg struct {
	Page   *inbox.EmailPage
	Counts map[string]int
	Err    error
}

// SelectedEmailMsg is sent when a user opens an email.
type SelectedEmailMsg struct {
	ID string
}

// Model is the dashboard: a category sidebar next to the email list.
type Model struct {
	list          list.Model
	delegate      ItemDelegate
	svc           Lister
	keys          *keys.KeyMap
	filter        model.ListFilter
	categoryIndex int
	counts        map[string]int
	pagination    model.Pagination
	warning       string
	loaded        bool
	sidebarWidth  int
	width         int
	height        int
}

// New creates the dashboard view.
func New(svc Lister, k *keys.KeyMap, pageSize, width, height int) Model {
	delegate := ItemDelegate{HighlightUrgent: true}
	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = "Inbox"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:     l,
		delegate: delegate,
		svc:      svc,
		keys:     k,
		filter: model.ListFilter{
			Page:     1,
			PerPage:  pageSize,
			Category: model.CategoryAll,
		},
		counts:       adapter.CountCategories(nil),
		sidebarWidth: 22,
		width:        width,
		height:       height,
	}
}

// Init returns a command that loads the first page.
func (m Model) Init() tea.Cmd {
	return m.LoadEmails()
}

// Update handles messages for the dashboard.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EmailsLoadedMsg:
		if msg.Err != nil {
			// Keep the previous snapshot on screen.
			m.warning = "Could not refresh emails: " + msg.Err.Error()
			return m, nil
		}
		m.warning = ""
		m.loaded = true
		m.pagination = msg.Page.Pagination
		if msg.Counts != nil {
			m.counts = msg.Counts
		}
		items := make([]list.Item, len(msg.Page.Emails))
		for i, e := range msg.Page.Emails {
			items[i] = EmailItem{Email: e}
		}
		m.list.Title = m.title()
		return m, m.list.SetItems(items)

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleKeys processes key input on the dashboard.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(EmailItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedEmailMsg{ID: item.Email.ID}
		}

	case key.Matches(msg, m.keys.NextCategory):
		m.setCategory(m.categoryIndex + 1)
		return m, m.LoadEmails()

	case key.Matches(msg, m.keys.PrevCategory):
		m.setCategory(m.categoryIndex - 1)
		return m, m.LoadEmails()

	case key.Matches(msg, m.keys.ToggleUnread):
		return m, m.ToggleUnread()

	case key.Matches(msg, m.keys.NextPage):
		if m.pagination.HasNext || m.pagination.Page < m.pagination.Pages {
			m.filter.Page++
			return m, m.LoadEmails()
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevPage):
		if (m.pagination.HasPrev || m.pagination.Page > 1) && m.filter.Page > 1 {
			m.filter.Page--
			return m, m.LoadEmails()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// setCategory moves the sidebar selection, wrapping at both ends.
func (m *Model) setCategory(i int) {
	n := len(model.KnownCategories)
	m.categoryIndex = ((i % n) + n) % n
	m.filter.Category = model.KnownCategories[m.categoryIndex]
	m.filter.Page = 1
}

// SetCategory selects a category by name. Unknown names are ignored.
func (m *Model) SetCategory(category string) tea.Cmd {
	for i, c := range model.KnownCategories {
		if c == category {
			m.setCategory(i)
			return m.LoadEmails()
		}
	}
	return nil
}

// ToggleUnread flips the unread-only filter and reloads from page 1.
func (m *Model) ToggleUnread() tea.Cmd {
	m.filter.UnreadOnly = !m.filter.UnreadOnly
	m.filter.Page = 1
	return m.LoadEmails()
}

// SetHighlightUrgent toggles the urgent row color.
func (m *Model) SetHighlightUrgent(on bool) {
	m.delegate.HighlightUrgent = on
	m.list.SetDelegate(m.delegate)
}

// MarkReadLocally flips an email to read without refetching.
func (m *Model) MarkReadLocally(id string) {
	for i, it := range m.list.Items() {
		ei, ok := it.(EmailItem)
		if ok && ei.Email.ID == id && ei.Email.Unread {
			ei.Email.Unread = false
			m.list.SetItem(i, ei)
			return
		}
	}
}

// Warning returns the stale-data message, or "" when the list is fresh.
func (m Model) Warning() string { return m.warning }

// Filter returns the active list filter.
func (m Model) Filter() model.ListFilter { return m.filter }

// title renders the list heading with the active filters.
func (m Model) title() string {
	parts := []string{"Inbox"}
	if m.filter.Category != model.CategoryAll {
		parts = append(parts, adapter.CategoryLabel(m.filter.Category))
	}
	if m.filter.UnreadOnly {
		parts = append(parts, "unread")
	}
	if m.pagination.Pages > 1 {
		parts = append(parts, fmt.Sprintf("page %d/%d", m.pagination.Page, m.pagination.Pages))
	}
	return strings.Join(parts, " · ")
}

// View renders the sidebar and list.
func (m Model) View() string {
	sidebar := m.renderSidebar()

	var main string
	switch {
	case !m.loaded && m.warning == "":
		main = m.renderCentered("Loading emails...")
	case len(m.list.Items()) == 0:
		main = m.renderEmptyState()
	default:
		main = m.list.View()
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
}

// renderSidebar lists categories with their counts.
func (m Model) renderSidebar() string {
	lines := []string{theme.TitleStyle.Render("Categories")}
	for i, c := range model.KnownCategories {
		label := "All Emails"
		if c != model.CategoryAll {
			label = adapter.CategoryLabel(c)
		}
		row := fmt.Sprintf("%-15s %3d", label, m.counts[c])
		if i == m.categoryIndex {
			lines = append(lines, theme.SelectedItemStyle.Render(row))
		} else {
			lines = append(lines, theme.ListItemStyle.Render(row))
		}
	}

	if m.filter.UnreadOnly {
		lines = append(lines, "", theme.HelpStyle.Render("unread only"))
	}

	return theme.SidebarStyle.
		Width(m.sidebarWidth).
		Height(m.height).
		Render(strings.Join(lines, "\n"))
}

// renderEmptyState shows guidance text when no emails match.
func (m Model) renderEmptyState() string {
	if m.filter.Category != model.CategoryAll || m.filter.UnreadOnly {
		return m.renderCentered("No matching emails.\nPress tab to change category or u to show all.")
	}
	return m.renderCentered("Your inbox is empty.\n\nPress r to sync your mailbox.")
}

func (m Model) renderCentered(text string) string {
	return lipgloss.NewStyle().
		Width(m.mainWidth()).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(text)
}

// LoadEmails returns a tea.Cmd that fetches the current page and the
// category counts.
func (m Model) LoadEmails() tea.Cmd {
	filter := m.filter
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		page, err := svc.ListEmails(ctx, filter)
		if err != nil {
			return EmailsLoadedMsg{Err: err}
		}

		var counts map[string]int
		if rows, err := svc.Categories(ctx); err == nil {
			counts = adapter.CountsFromBackend(rows)
		} else if filter.Category == model.CategoryAll && !filter.UnreadOnly {
			counts = adapter.CountCategories(page.Emails)
		}
		return EmailsLoadedMsg{Page: page, Counts: counts}
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.sidebarWidth = sidebarWidth(width)
	m.list.SetSize(m.mainWidth(), height)
}

func (m Model) mainWidth() int {
	w := m.width - m.sidebarWidth - 3
	if w < 20 {
		return 20
	}
	return w
}

func sidebarWidth(total int) int {
	w := total / 4
	switch {
	case w < 22:
		return 22
	case w > 28:
		return 28
	default:
		return w
	}
}
