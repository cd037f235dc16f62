package inboxlist

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox-copilot/internal/adapter"
	"github.com/nhle/inbox-copilot/internal/model"
	"github.com/nhle/inbox-copilot/internal/theme"
)

// priorityBarWidth is the number of cells in each row's priority bar.
const priorityBarWidth = 10

// EmailItem wraps a model.DisplayEmail so it can be used in a bubbles/list.
type EmailItem struct {
	Email model.DisplayEmail
}

// FilterValue returns the string used for fuzzy filtering.
func (i EmailItem) FilterValue() string {
	return i.Email.StudentName + " " + i.Email.Subject
}

// Title returns the subject line.
func (i EmailItem) Title() string { return i.Email.Subject }

// Description returns the summary line.
func (i EmailItem) Description() string { return i.Email.Summary }

// ItemDelegate renders one email as two lines: sender and subject, then
// priority, category, and summary.
type ItemDelegate struct {
	// HighlightUrgent paints urgent rows in the urgent color.
	HighlightUrgent bool
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 1 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single email row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ei, ok := item.(EmailItem)
	if !ok {
		return
	}
	e := ei.Email
	width := m.Width() - 4
	if width < 20 {
		width = 20
	}

	marker := " "
	if e.Unread {
		marker = theme.UnreadMarker
	}

	nameStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	subjectStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	if e.Unread {
		nameStyle = nameStyle.Bold(true)
		subjectStyle = subjectStyle.Bold(true)
	} else {
		subjectStyle = theme.DimmedStyle
	}

	level := adapter.PriorityLevelOf(e.Priority)
	if d.HighlightUrgent && level == adapter.PriorityUrgent {
		nameStyle = nameStyle.Foreground(theme.ColorRed)
	}

	timestamp := theme.DimmedStyle.Render(e.Timestamp)
	head := fmt.Sprintf("%s %s %s  %s",
		marker,
		theme.EmotionGlyph(e.Emotion),
		nameStyle.Render(e.StudentName),
		subjectStyle.Render(e.Subject),
	)
	gap := width - lipgloss.Width(head) - lipgloss.Width(timestamp)
	if gap < 1 {
		head = lipgloss.NewStyle().MaxWidth(width - lipgloss.Width(timestamp) - 1).Render(head)
		gap = 1
	}
	line1 := head + lipgloss.NewStyle().Width(gap).Render("") + timestamp

	badge := theme.CategoryStyle(e.Category).Render(adapter.CategoryLabel(e.Category))
	line2 := fmt.Sprintf("    %s %s %s  %s",
		theme.PriorityBar(e.Priority, priorityBarWidth),
		theme.DimmedStyle.Render(level.Label()),
		badge,
		theme.DimmedStyle.Render(e.Summary),
	)
	line2 = lipgloss.NewStyle().MaxWidth(width).Render(line2)

	style := theme.ListItemStyle
	if index == m.Index() {
		style = theme.SelectedItemStyle
	}
	fmt.Fprint(w, style.Render(line1+"\n"+line2))
}
