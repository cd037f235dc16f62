package login

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox-copilot/internal/auth"
	"github.com/nhle/inbox-copilot/internal/theme"
)

const requestTimeout = 30 * time.Second

// Authenticator is the part of the auth service the login view drives.
type Authenticator interface {
	LoginURL(ctx context.Context) (string, error)
	HandleCallback(ctx context.Context, code, state string) (auth.CallbackResult, error)
}

// LoginURLMsg carries the sign-in URL from the backend.
type LoginURLMsg struct {
	URL string
	Err error
}

// callbackMsg carries the result of the code exchange.
type callbackMsg struct {
	result auth.CallbackResult
	err    error
}

// SignedInMsg is dispatched once the session is stored.
type SignedInMsg struct {
	Result auth.CallbackResult
}

// QuitMsg is dispatched when the user abandons sign-in.
type QuitMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	code string
}

// Model is the sign-in view: it shows the login URL and takes the
// authorization code the browser was redirected with.
type Model struct {
	auth       Authenticator
	form       *huh.Form
	fb         *formBindings
	spinner    spinner.Model
	url        string
	reason     string
	err        error
	exchanging bool
	width      int
	height     int
}

// New creates the login view. reason is shown above the instructions,
// e.g. "Your session has expired."
func New(a Authenticator, reason string, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	m := Model{
		auth:    a,
		fb:      &formBindings{},
		spinner: sp,
		reason:  reason,
		width:   width,
		height:  height,
	}
	m.form = m.buildForm()
	return m
}

// Init fetches the login URL and focuses the code form.
func (m Model) Init() tea.Cmd {
	a := m.auth
	return tea.Batch(m.form.Init(), func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		u, err := a.LoginURL(ctx)
		return LoginURLMsg{URL: u, Err: err}
	})
}

// Update handles messages for the login view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoginURLMsg:
		m.url = msg.URL
		if msg.Err != nil {
			m.err = msg.Err
		}
		return m, nil

	case callbackMsg:
		m.exchanging = false
		if msg.err != nil {
			m.err = msg.err
			m.fb.code = ""
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		result := msg.result
		return m, func() tea.Msg { return SignedInMsg{Result: result} }

	case spinner.TickMsg:
		if !m.exchanging {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.form == nil || m.exchanging {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		code, state := auth.ParseCode(m.fb.code)
		m.exchanging = true
		m.err = nil
		a := m.auth
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			res, err := a.HandleCallback(ctx, code, state)
			return callbackMsg{result: res, err: err}
		})
	case huh.StateAborted:
		return m, func() tea.Msg { return QuitMsg{} }
	}

	return m, cmd
}

// View renders the login view.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Sign in to Inbox Copilot"))
	b.WriteString("\n")
	if m.reason != "" {
		b.WriteString(theme.WarningStyle.Render(m.reason))
		b.WriteString("\n\n")
	}

	switch {
	case m.url != "":
		b.WriteString("1. Open this address in your browser and sign in with your university account:\n\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorBlue).Underline(true).Render(m.url))
		b.WriteString("\n\n2. Paste the code, or the whole address you were redirected to, below.\n\n")
	case m.err == nil:
		b.WriteString(theme.HelpStyle.Render("Contacting the server..."))
		b.WriteString("\n\n")
	}

	if m.err != nil {
		b.WriteString(theme.ErrorStyle.Render(describe(m.err)))
		b.WriteString("\n\n")
	}

	if m.exchanging {
		b.WriteString(m.spinner.View() + " Signing in...")
	} else if m.form != nil {
		b.WriteString(m.form.View())
	}

	return theme.DetailPanelStyle.
		Width(min(m.width-4, 100)).
		Render(b.String())
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Authorization code").
				Placeholder("paste here and press enter").
				Value(&m.fb.code).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return auth.ErrMissingCode
					}
					return nil
				}),
		),
	).WithWidth(min(max(m.width-8, 30), 90)).WithShowHelp(false)
}

func describe(err error) string {
	if errors.Is(err, auth.ErrMissingCode) {
		return "Enter the authorization code from the browser."
	}
	return "Sign-in failed: " + err.Error()
}
