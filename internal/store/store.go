package store

import (
	"context"

	"github.com/nhle/inbox-copilot/internal/model"
)

// Store defines local persistence for the things the backend does not
// keep: reply settings, digest history, and the Ask-the-Inbox transcript.
type Store interface {
	// === Preferences ===

	GetPreferences(ctx context.Context) (model.Preferences, error)
	SavePreferences(ctx context.Context, p model.Preferences) error

	// === Digests ===

	SaveDigest(ctx context.Context, date string, d model.Digest) (*model.DigestRecord, error)
	LatestDigest(ctx context.Context) (*model.DigestRecord, error)
	ListDigests(ctx context.Context, limit int) ([]model.DigestRecord, error)

	// === Conversation ===

	AppendMessage(ctx context.Context, role, content string) (*model.ChatMessage, error)
	GetConversation(ctx context.Context, limit int) ([]model.ChatMessage, error)
	ClearConversation(ctx context.Context) error

	Close() error
}

var _ Store = (*SQLiteStore)(nil)
