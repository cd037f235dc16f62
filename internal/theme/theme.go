package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox-copilot/internal/adapter"
	"github.com/nhle/inbox-copilot/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}

	ColorPrimary = ColorBlue
	ColorMuted   = ColorGray
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps panel content such as the help overlay.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// SidebarStyle frames the category sidebar.
var SidebarStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Border(lipgloss.NormalBorder(), false, true, false, false).
	BorderForeground(ColorBorder)

// SelectedItemStyle highlights the currently focused list row.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// ListItemStyle is the base style for unselected rows.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// DimmedStyle renders read mail and secondary text.
var DimmedStyle = lipgloss.NewStyle().Foreground(ColorGray)

// WarningStyle renders the stale-data banner.
var WarningStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorOrange)

// ErrorStyle renders inline failures.
var ErrorStyle = lipgloss.NewStyle().Foreground(ColorRed)

// TitleStyle renders view titles inside the content area.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	MarginBottom(1)

// PriorityColor returns the bar color for a priority level.
func PriorityColor(level adapter.PriorityLevel) lipgloss.AdaptiveColor {
	switch level {
	case adapter.PriorityUrgent:
		return ColorRed
	case adapter.PriorityHigh:
		return ColorOrange
	case adapter.PriorityMedium:
		return ColorYellow
	default:
		return ColorGreen
	}
}

// PriorityBar renders priority p in [0,1] as a bar of width cells.
func PriorityBar(p float64, width int) string {
	filled := int(p*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	on := lipgloss.NewStyle().Foreground(PriorityColor(adapter.PriorityLevelOf(p))).Render(strings.Repeat("█", filled))
	off := lipgloss.NewStyle().Foreground(ColorSubtle).Render(strings.Repeat("░", width-filled))
	return on + off
}

// EmotionGlyph is the one-cell marker shown next to an email.
func EmotionGlyph(e model.Emotion) string {
	switch e {
	case model.EmotionAnxious:
		return lipgloss.NewStyle().Foreground(ColorRed).Render("!")
	case model.EmotionFrustrated:
		return lipgloss.NewStyle().Foreground(ColorOrange).Render("~")
	case model.EmotionConfused:
		return lipgloss.NewStyle().Foreground(ColorYellow).Render("?")
	case model.EmotionCalm:
		return lipgloss.NewStyle().Foreground(ColorGreen).Render("·")
	default:
		return " "
	}
}

// CategoryStyle returns a color-coded badge style for a category.
func CategoryStyle(category string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch category {
	case model.CategoryUrgent, model.CategoryHonor:
		return base.Foreground(ColorRed)
	case model.CategoryGrades:
		return base.Foreground(ColorOrange)
	case model.CategoryExtension:
		return base.Foreground(ColorMagenta)
	case model.CategoryClarification:
		return base.Foreground(ColorBlue)
	case model.CategoryLogistics:
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}

// UnreadMarker is shown before unread emails.
var UnreadMarker = lipgloss.NewStyle().Foreground(ColorBlue).Bold(true).Render("●")
