package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/inbox-copilot/internal/api"
	"github.com/nhle/inbox-copilot/internal/auth"
	"github.com/nhle/inbox-copilot/internal/inbox"
	"github.com/nhle/inbox-copilot/internal/keys"
	"github.com/nhle/inbox-copilot/internal/model"
	"github.com/nhle/inbox-copilot/internal/store"
	appsync "github.com/nhle/inbox-copilot/internal/sync"
	"github.com/nhle/inbox-copilot/internal/ui"
	"github.com/nhle/inbox-copilot/internal/ui/ask"
	"github.com/nhle/inbox-copilot/internal/ui/command"
	"github.com/nhle/inbox-copilot/internal/ui/detail"
	"github.com/nhle/inbox-copilot/internal/ui/digest"
	helpview "github.com/nhle/inbox-copilot/internal/ui/help"
	"github.com/nhle/inbox-copilot/internal/ui/inboxlist"
	"github.com/nhle/inbox-copilot/internal/ui/login"
	"github.com/nhle/inbox-copilot/internal/ui/settings"
)

// EmailService is everything the TUI asks of the backend.
type EmailService interface {
	inboxlist.Lister
	detail.Service
	ask.Searcher
	digest.Generator
	appsync.Syncer
	BatchClassify(ctx context.Context) (int, error)
}

// Session is the signed-in state the TUI needs.
type Session interface {
	login.Authenticator
	IsAuthenticated() bool
	SessionExpired(now time.Time) bool
	GetCurrentUser() (*model.User, error)
	Logout() error
}

var (
	_ EmailService = (*inbox.Service)(nil)
	_ Session      = (*auth.Service)(nil)
)

const sessionExpired = "Your session has expired. Please sign in again."

// Deps are the services the TUI runs on.
type Deps struct {
	Inbox  EmailService
	Auth   Session
	Store  store.Store
	Poller *appsync.Poller
	Logger *zap.Logger

	// PageSize is the dashboard page size.
	PageSize int

	// DraftDir receives exported .eml drafts.
	DraftDir string
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewAsk
	ViewDigest
	ViewSettings
	ViewLogin
	ViewHelp
	ViewCommand
)

// Model is the root Bubble Tea model that manages view routing and layout.
type Model struct {
	currentView  ViewState
	previousView ViewState
	detailReturn ViewState
	layout       ui.Layout
	deps         Deps
	logger       *zap.Logger
	keys         *keys.KeyMap
	inboxList    inboxlist.Model
	detail       detail.Model
	askView      ask.Model
	digestView   digest.Model
	settingsView settings.Model
	loginView    login.Model
	helpView     helpview.Model
	commandView  command.Model
	user         *model.User
	prefs        model.Preferences
	notice       string
	ready        bool
}

// New creates the root application model.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := Model{
		currentView:  ViewList,
		deps:         d,
		logger:       logger.Named("tui"),
		keys:         k,
		inboxList:    inboxlist.New(d.Inbox, k, d.PageSize, 80, 24),
		detail:       detail.New(d.Inbox, k, 80, 24),
		askView:      ask.New(d.Inbox, d.Store, k, 80, 24),
		digestView:   digest.New(d.Inbox, d.Store, k, 80, 24),
		settingsView: settings.New(d.Store, 80, 24),
		helpView:     helpview.New(k, 80, 24),
		commandView:  command.New(80, 24),
		prefs:        model.DefaultPreferences(),
	}

	switch {
	case !d.Auth.IsAuthenticated():
		m.currentView = ViewLogin
		m.loginView = login.New(d.Auth, "", 80, 24)
	case d.Auth.SessionExpired(time.Now()):
		m.currentView = ViewLogin
		m.loginView = login.New(d.Auth, sessionExpired, 80, 24)
	default:
		if u, err := d.Auth.GetCurrentUser(); err == nil {
			m.user = u
		}
	}

	return m
}

// Init starts the dashboard, or the login flow when signed out.
func (m Model) Init() tea.Cmd {
	if m.currentView == ViewLogin {
		return m.loginView.Init()
	}
	return m.startSession()
}

// startSession loads the dashboard and starts background sync.
func (m Model) startSession() tea.Cmd {
	cmds := []tea.Cmd{m.inboxList.Init(), m.loadPreferences()}
	if m.deps.Poller != nil {
		cmds = append(cmds, m.deps.Poller.Start())
	}
	return tea.Batch(cmds...)
}

func (m Model) polling() bool {
	return m.deps.Poller != nil && m.deps.Poller.Running()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.inboxList.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.askView.SetSize(w, h)
		m.digestView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		m.loginView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	// === Session ===

	case login.SignedInMsg:
		m.user = msg.Result.User
		m.currentView = ViewList
		m.notice = "Signed in."
		return m, m.startSession()

	case login.QuitMsg:
		m.stopPolling()
		return m, tea.Quit

	case loggedOutMsg:
		if msg.err != nil {
			m.notice = "Could not sign out: " + msg.err.Error()
			return m, nil
		}
		m.user = nil
		return m, m.routeToLogin("You have signed out.")

	case prefsLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("loading preferences", zap.Error(msg.err))
			return m, nil
		}
		m.applyPreferences(msg.prefs)
		return m, nil

	// === Background sync ===

	case appsync.SyncResultMsg:
		if msg.AuthExpired {
			if m.currentView == ViewLogin {
				m.stopPolling()
				return m, nil
			}
			return m, m.routeToLogin(sessionExpired)
		}
		wait := m.deps.Poller.WaitForNextResult()
		if msg.Error != nil {
			return m, wait
		}
		if msg.Result != nil && msg.Result.NewEmails > 0 {
			m.notice = fmt.Sprintf("%d new email(s).", msg.Result.NewEmails)
		}
		return m, tea.Batch(wait, m.inboxList.LoadEmails())

	// === Dashboard ===

	case inboxlist.EmailsLoadedMsg:
		if api.IsUnauthorized(msg.Err) && m.currentView != ViewLogin {
			return m, m.routeToLogin(sessionExpired)
		}
		var cmd tea.Cmd
		m.inboxList, cmd = m.inboxList.Update(msg)
		return m, cmd

	case inboxlist.SelectedEmailMsg:
		m.previousView = m.currentView
		m.detailReturn = ViewList
		if m.currentView == ViewAsk {
			m.detailReturn = ViewAsk
		}
		m.currentView = ViewDetail
		m.notice = ""
		return m, m.detail.Open(msg.ID)

	// === Detail ===

	case detail.DetailLoadedMsg, detail.ReplyGeneratedMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd

	case detail.MarkedReadMsg:
		if msg.Err == nil {
			m.inboxList.MarkReadLocally(msg.ID)
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd

	case detail.ClassifiedMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		if msg.Err != nil {
			return m, cmd
		}
		return m, tea.Batch(cmd, m.inboxList.LoadEmails())

	case detail.ExportDraftMsg:
		return m, m.exportDraft(msg.Email, msg.Draft)

	case draftExportedMsg:
		if msg.err != nil {
			m.detail.SetStatus("Could not export draft: " + msg.err.Error())
		} else {
			m.detail.SetStatus(fmt.Sprintf("Saved %q to %s", msg.subject, msg.path))
		}
		return m, nil

	case detail.BackMsg:
		if m.detailReturn == ViewAsk {
			m.currentView = ViewAsk
			return m, m.askView.Focus()
		}
		m.currentView = ViewList
		return m, nil

	// === Ask, digest, settings ===

	case ask.HistoryLoadedMsg, ask.AnswerMsg:
		var cmd tea.Cmd
		m.askView, cmd = m.askView.Update(msg)
		return m, cmd

	case ask.CloseMsg:
		m.currentView = ViewList
		return m, nil

	case digest.HistoryLoadedMsg, digest.GeneratedMsg:
		var cmd tea.Cmd
		m.digestView, cmd = m.digestView.Update(msg)
		return m, cmd

	case digest.CloseMsg:
		m.currentView = ViewList
		return m, nil

	case settings.SavedMsg:
		m.currentView = ViewList
		if msg.Err != nil {
			m.notice = "Could not save settings: " + msg.Err.Error()
			return m, nil
		}
		m.applyPreferences(msg.Preferences)
		m.notice = "Settings saved."
		return m, nil

	case settings.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case classifiedAllMsg:
		if msg.err != nil {
			m.notice = "Batch classification failed: " + msg.err.Error()
			return m, nil
		}
		m.notice = fmt.Sprintf("Classified %d email(s).", msg.processed)
		return m, m.inboxList.LoadEmails()

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(msg)

	case tea.KeyMsg:
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work across views. Views with text
// input only see ctrl+c here.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.stopPolling()
		return m, tea.Quit, true
	}

	switch m.currentView {
	case ViewAsk, ViewSettings, ViewLogin:
		return m, nil, false
	case ViewCommand:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, nil, false
	case ViewHelp:
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
		}
		return m, nil, true
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus(), true
	}

	if m.currentView != ViewList {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.stopPolling()
		return m, tea.Quit, true

	case key.Matches(msg, m.keys.Refresh):
		if !m.polling() {
			return m, m.inboxList.LoadEmails(), true
		}
		m.deps.Poller.Refresh()
		m.notice = "Syncing mailbox..."
		return m, nil, true

	case key.Matches(msg, m.keys.Ask):
		cmd := m.openView(ViewAsk)
		return m, cmd, true

	case key.Matches(msg, m.keys.Digest):
		cmd := m.openView(ViewDigest)
		return m, cmd, true

	case key.Matches(msg, m.keys.Settings):
		cmd := m.openView(ViewSettings)
		return m, cmd, true
	}

	return m, nil, false
}

// openView switches to v and returns its start-up command.
func (m *Model) openView(v ViewState) tea.Cmd {
	m.previousView = m.currentView
	m.currentView = v
	m.notice = ""

	switch v {
	case ViewAsk:
		return tea.Batch(m.askView.Init(), m.askView.Focus())
	case ViewDigest:
		return m.digestView.Init()
	case ViewSettings:
		return m.settingsView.Load()
	}
	return nil
}

// routeToLogin replaces the current view with a fresh login view and stops
// background sync until the next sign-in.
func (m *Model) routeToLogin(reason string) tea.Cmd {
	m.stopPolling()
	m.currentView = ViewLogin
	m.loginView = login.New(m.deps.Auth, reason, m.layout.ContentWidth(), m.layout.ContentHeight())
	return m.loginView.Init()
}

func (m Model) stopPolling() {
	if m.deps.Poller != nil {
		m.deps.Poller.Stop()
	}
}

func (m *Model) applyPreferences(p model.Preferences) {
	m.prefs = p
	m.detail.SetPreferences(p)
	m.inboxList.SetHighlightUrgent(p.HighlightUrgent)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.inboxList, cmd = m.inboxList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewAsk:
		m.askView, cmd = m.askView.Update(msg)
	case ViewDigest:
		m.digestView, cmd = m.digestView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "Inbox Copilot"
	if m.user != nil && m.user.Name != "" {
		title += " · " + m.user.Name
	}
	header := m.layout.RenderHeader(title, m.syncStatus())
	banner := m.layout.RenderBanner(m.warning())
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, banner, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.inboxList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewAsk:
		return m.askView.View()
	case ViewDigest:
		return m.digestView.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewLogin:
		return m.loginView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// warning is the banner text: a stale dashboard first, then sync trouble.
func (m Model) warning() string {
	if m.currentView == ViewLogin {
		return ""
	}
	if w := m.inboxList.Warning(); w != "" {
		return w
	}
	if m.polling() {
		if st := m.deps.Poller.Status(); st.State == appsync.SyncError && st.Error != nil {
			return "Mailbox sync failed: " + st.Error.Error()
		}
	}
	return ""
}

// syncStatus returns a short string describing the sync state.
func (m Model) syncStatus() string {
	if !m.polling() {
		return ""
	}
	st := m.deps.Poller.Status()
	if st.State == appsync.SyncIdle && !st.LastSync.IsZero() {
		return "synced " + st.LastSync.Format("3:04 PM")
	}
	return st.State.String()
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	var hints string
	switch m.currentView {
	case ViewHelp:
		hints = "? close help | esc back"
	case ViewCommand:
		hints = "enter execute | tab complete | esc back"
	case ViewDetail:
		hints = "esc back | g draft reply | m mark read | c classify | x export | j/k scroll"
	case ViewAsk:
		hints = "enter ask | esc back"
	case ViewDigest:
		hints = "g generate | [ older | ] newer | esc back"
	case ViewSettings:
		hints = "tab next | enter confirm | esc cancel"
	case ViewLogin:
		hints = "enter sign in | ctrl+c quit"
	default:
		hints = "q quit | ? help | tab category | u unread | a ask | d digest | s settings | r sync"
	}

	if m.notice != "" && m.currentView != ViewLogin {
		return m.notice + " | " + hints
	}
	return hints
}
