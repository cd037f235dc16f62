package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox-copilot/internal/model"
	"github.com/nhle/inbox-copilot/internal/theme"
)

// PreferencesStore loads and saves the professor's settings.
type PreferencesStore interface {
	GetPreferences(ctx context.Context) (model.Preferences, error)
	SavePreferences(ctx context.Context, p model.Preferences) error
}

// SavedMsg is dispatched after the preferences were persisted.
type SavedMsg struct {
	Preferences model.Preferences
	Err         error
}

// CancelMsg is dispatched when the user leaves without saving.
type CancelMsg struct{}

// LoadedMsg carries the stored preferences.
type LoadedMsg struct {
	Preferences model.Preferences
	Err         error
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	tone            string
	replyLength     string
	signature       string
	autoGenerate    bool
	detectDistress  bool
	highlightUrgent bool
	wellbeingAlerts bool
	latePolicy      string
	extensionPolicy string
	honorPolicy     string
	gradePolicy     string
}

// Model is the settings form.
type Model struct {
	store  PreferencesStore
	form   *huh.Form
	fb     *formBindings
	err    error
	width  int
	height int
}

// New creates the settings view.
func New(s PreferencesStore, width, height int) Model {
	return Model{
		store:  s,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Load fetches the stored preferences; the form opens on LoadedMsg.
func (m Model) Load() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		p, err := s.GetPreferences(context.Background())
		return LoadedMsg{Preferences: p, Err: err}
	}
}

// Start opens the form bound to p.
func (m *Model) Start(p model.Preferences) tea.Cmd {
	m.err = nil
	m.fb.tone = p.Tone
	m.fb.replyLength = strconv.Itoa(p.ReplyLength)
	m.fb.signature = p.Signature
	m.fb.autoGenerate = p.AutoGenerate
	m.fb.detectDistress = p.DetectDistress
	m.fb.highlightUrgent = p.HighlightUrgent
	m.fb.wellbeingAlerts = p.WellbeingAlerts
	m.fb.latePolicy = p.LatePolicy
	m.fb.extensionPolicy = p.ExtensionPolicy
	m.fb.honorPolicy = p.HonorPolicy
	m.fb.gradePolicy = p.GradePolicy
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the settings form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		p := msg.Preferences
		if msg.Err != nil {
			p = model.DefaultPreferences()
		}
		cmd := m.Start(p)
		m.err = msg.Err
		return m, cmd
	}

	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		return m, m.save()
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// Preferences builds a Preferences value from the form fields.
func (m Model) Preferences() model.Preferences {
	length, err := strconv.Atoi(strings.TrimSpace(m.fb.replyLength))
	if err != nil {
		length = model.DefaultPreferences().ReplyLength
	}
	return model.Preferences{
		Tone:            m.fb.tone,
		ReplyLength:     length,
		AutoGenerate:    m.fb.autoGenerate,
		DetectDistress:  m.fb.detectDistress,
		HighlightUrgent: m.fb.highlightUrgent,
		WellbeingAlerts: m.fb.wellbeingAlerts,
		LatePolicy:      strings.TrimSpace(m.fb.latePolicy),
		ExtensionPolicy: strings.TrimSpace(m.fb.extensionPolicy),
		HonorPolicy:     strings.TrimSpace(m.fb.honorPolicy),
		GradePolicy:     strings.TrimSpace(m.fb.gradePolicy),
		Signature:       strings.TrimSpace(m.fb.signature),
	}
}

func (m Model) save() tea.Cmd {
	s := m.store
	p := m.Preferences()
	return func() tea.Msg {
		err := s.SavePreferences(context.Background(), p)
		return SavedMsg{Preferences: p, Err: err}
	}
}

// View renders the settings form.
func (m Model) View() string {
	if m.form == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Loading settings...")
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("Settings") + "\n"
	if m.err != nil {
		content += theme.WarningStyle.Render("Could not load saved settings; showing defaults.") + "\n\n"
	}
	content += m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth()).WithHeight(m.formHeight())
	}
}

func (m *Model) buildForm() *huh.Form {
	toneOpts := make([]huh.Option[string], len(model.Tones))
	for i, t := range model.Tones {
		toneOpts[i] = huh.NewOption(strings.ToUpper(t[:1])+t[1:], t)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Reply tone").
				Options(toneOpts...).
				Value(&m.fb.tone),
			huh.NewInput().
				Title("Reply length").
				Description("0 is brief, 100 is detailed").
				Value(&m.fb.replyLength).
				Validate(validateLength),
			huh.NewText().
				Title("Signature").
				Placeholder("Appended to every draft (optional)").
				Value(&m.fb.signature),
			huh.NewConfirm().
				Title("Draft replies automatically when opening an email?").
				Value(&m.fb.autoGenerate),
		).Title("Replies"),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Detect student distress?").
				Value(&m.fb.detectDistress),
			huh.NewConfirm().
				Title("Highlight urgent emails?").
				Value(&m.fb.highlightUrgent),
			huh.NewConfirm().
				Title("Show wellbeing alerts?").
				Value(&m.fb.wellbeingAlerts),
		).Title("Alerts"),
		huh.NewGroup(
			huh.NewText().Title("Late work policy").Value(&m.fb.latePolicy),
			huh.NewText().Title("Extension policy").Value(&m.fb.extensionPolicy),
			huh.NewText().Title("Academic integrity policy").Value(&m.fb.honorPolicy),
			huh.NewText().Title("Grade appeal policy").Value(&m.fb.gradePolicy),
		).Title("Course policies"),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 6
	if h < 12 {
		h = 12
	}
	return h
}

func validateLength(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("enter a whole number")
	}
	if n < 0 || n > 100 {
		return fmt.Errorf("must be between 0 and 100")
	}
	return nil
}
