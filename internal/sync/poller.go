package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/inbox-copilot/internal/api"
	"github.com/nhle/inbox-copilot/internal/model"
)

// SyncState represents the current state of the mailbox sync.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// String returns a short label for the header.
func (s SyncState) String() string {
	switch s {
	case SyncRunning:
		return "syncing"
	case SyncError:
		return "sync failed"
	default:
		return "idle"
	}
}

// SyncStatus is a snapshot of the poller.
type SyncStatus struct {
	State    SyncState
	LastSync time.Time
	Error    error
}

// SyncResultMsg is a tea.Msg sent when a sync operation completes.
type SyncResultMsg struct {
	Result *model.SyncResult
	Error  error

	// AuthExpired is set when the backend rejected the session token.
	AuthExpired bool
}

// Syncer pulls new mail into the backend.
type Syncer interface {
	SyncEmails(ctx context.Context) (*model.SyncResult, error)
}

// DefaultInterval is used when no positive interval is configured.
const DefaultInterval = 120 * time.Second

// syncTimeout is the maximum time allowed for a single sync.
const syncTimeout = 60 * time.Second

// Poller triggers a mailbox sync on an interval and on demand, and
// reports each outcome to the Bubble Tea runtime.
type Poller struct {
	syncer    Syncer
	interval  time.Duration
	logger    *zap.Logger
	status    SyncStatus
	resultCh  chan SyncResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// New creates a Poller. A non-positive interval uses DefaultInterval.
func New(s Syncer, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		syncer:    s,
		interval:  interval,
		logger:    logger.Named("sync"),
		resultCh:  make(chan SyncResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
	}
}

// Start launches the polling goroutine and returns a command that waits
// for the first result. The first sync runs immediately. Calling Start
// on a running poller returns nil; a stopped poller can be started again.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})
	stop := p.stopCh
	p.mu.Unlock()

	// Results left over from a previous run belong to the old session.
	for drained := false; !drained; {
		select {
		case <-p.resultCh:
		default:
			drained = true
		}
	}

	go p.loop(stop)

	return p.waitForResult()
}

// Stop halts the polling goroutine. It is safe to call more than once.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// Refresh requests an immediate sync. Requests made while one is already
// pending are coalesced.
func (p *Poller) Refresh() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// Running reports whether the polling goroutine is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Status returns the current sync status.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// loop runs until stop is closed.
func (p *Poller) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.syncOnce()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.syncOnce()
		case <-p.triggerCh:
			p.syncOnce()
			ticker.Reset(p.interval)
		}
	}
}

// syncOnce performs a single sync and publishes the outcome.
func (p *Poller) syncOnce() {
	p.setStatus(SyncRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	result, err := p.syncer.SyncEmails(ctx)
	if err != nil {
		p.setStatus(SyncError, err)
		p.logger.Warn("mailbox sync failed", zap.Error(err))
		p.sendResult(SyncResultMsg{
			Error:       err,
			AuthExpired: api.IsUnauthorized(err),
		})
		return
	}

	p.setStatus(SyncIdle, nil)
	p.sendResult(SyncResultMsg{Result: result})
}

// setStatus records the sync state.
func (p *Poller) setStatus(state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == SyncIdle {
		p.status.LastSync = time.Now()
	}
}

// sendResult sends a SyncResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next result. The
// command returns nil once the current run is stopped, or at once when
// the poller is not running.
func (p *Poller) waitForResult() tea.Cmd {
	p.mu.Lock()
	stop := p.stopCh
	running := p.running
	p.mu.Unlock()

	return func() tea.Msg {
		if !running {
			return nil
		}
		select {
		case result := <-p.resultCh:
			return result
		case <-stop:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next sync result.
// Call it after handling each SyncResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
