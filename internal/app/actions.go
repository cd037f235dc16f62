package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/inbox-copilot/internal/adapter"
	"github.com/nhle/inbox-copilot/internal/draft"
	"github.com/nhle/inbox-copilot/internal/model"
	"github.com/nhle/inbox-copilot/internal/ui/command"
)

const batchTimeout = 5 * time.Minute

type prefsLoadedMsg struct {
	prefs model.Preferences
	err   error
}

type draftExportedMsg struct {
	path    string
	subject string
	err     error
}

type loggedOutMsg struct {
	err error
}

type classifiedAllMsg struct {
	processed int
	err       error
}

// loadPreferences reads the stored settings.
func (m Model) loadPreferences() tea.Cmd {
	s := m.deps.Store
	return func() tea.Msg {
		p, err := s.GetPreferences(context.Background())
		return prefsLoadedMsg{prefs: p, err: err}
	}
}

// exportDraft writes the reply to rec as an .eml file under DraftDir.
func (m Model) exportDraft(rec model.BackendEmail, body string) tea.Cmd {
	user := m.user
	dir := m.deps.DraftDir
	logger := m.logger
	return func() tea.Msg {
		msg, err := draft.FromEmail(user, rec, body)
		if err != nil {
			return draftExportedMsg{err: err}
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return draftExportedMsg{err: fmt.Errorf("creating %s: %w", dir, err)}
		}
		path := filepath.Join(dir, DraftFileName(rec.ID.String(), time.Now()))
		if err := draft.ExportFile(path, msg); err != nil {
			return draftExportedMsg{err: err}
		}
		written, err := readBack(path)
		if err != nil {
			return draftExportedMsg{err: fmt.Errorf("verifying %s: %w", path, err)}
		}
		logger.Info("exported draft", zap.String("email_id", rec.ID.String()), zap.String("path", path))
		return draftExportedMsg{path: path, subject: written.Subject}
	}
}

// readBack parses an exported file so the status reflects what was written.
func readBack(path string) (draft.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return draft.Message{}, err
	}
	defer f.Close()
	return draft.ReadEML(f)
}

// DraftFileName names an exported reply so repeated exports do not collide.
func DraftFileName(emailID string, now time.Time) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, emailID)
	return fmt.Sprintf("reply-%s-%s.eml", safe, now.Format("20060102-150405"))
}

// executeCommand runs a command from the palette.
func (m *Model) executeCommand(c command.CommandMsg) tea.Cmd {
	switch c.Name {
	case "inbox", "all":
		m.currentView = ViewList
		return m.inboxList.SetCategory(model.CategoryAll)

	case "category", "cat":
		name, ok := resolveCategory(c.Arg)
		if !ok {
			m.notice = fmt.Sprintf("Unknown category %q.", c.Arg)
			return nil
		}
		m.currentView = ViewList
		return m.inboxList.SetCategory(name)

	case "unread":
		m.currentView = ViewList
		return m.inboxList.ToggleUnread()

	case "sync", "refresh":
		if !m.polling() {
			return m.inboxList.LoadEmails()
		}
		m.deps.Poller.Refresh()
		m.notice = "Syncing mailbox..."
		return nil

	case "classify-all":
		m.notice = "Classifying unprocessed emails..."
		svc := m.deps.Inbox
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
			defer cancel()
			n, err := svc.BatchClassify(ctx)
			return classifiedAllMsg{processed: n, err: err}
		}

	case "ask":
		return m.openView(ViewAsk)
	case "digest":
		return m.openView(ViewDigest)
	case "settings", "preferences":
		return m.openView(ViewSettings)

	case "whoami":
		if m.user == nil {
			m.notice = "Not signed in."
		} else {
			m.notice = fmt.Sprintf("Signed in as %s <%s>.", m.user.Name, m.user.Email)
		}
		return nil

	case "logout":
		a := m.deps.Auth
		return func() tea.Msg { return loggedOutMsg{err: a.Logout()} }

	case "help":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil

	case "quit", "q":
		m.stopPolling()
		return tea.Quit

	default:
		m.notice = fmt.Sprintf("Unknown command %q. Press ? for help.", c.Name)
		return nil
	}
}

// resolveCategory matches a category by key or by its display label.
func resolveCategory(arg string) (string, bool) {
	arg = strings.ToLower(strings.TrimSpace(arg))
	if arg == "" {
		return "", false
	}
	for _, c := range model.KnownCategories {
		if arg == c || arg == strings.ToLower(adapter.CategoryLabel(c)) {
			return c, true
		}
	}
	return "", false
}
