package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/inbox-copilot/internal/model"
)

// AppendMessage adds a turn to the Ask-the-Inbox transcript.
func (s *SQLiteStore) AppendMessage(
	ctx context.Context,
	role, content string,
) (*model.ChatMessage, error) {
	if role != model.RoleUser && role != model.RoleAssistant {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("message content must not be empty")
	}

	msg := model.ChatMessage{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO conversation (id, role, content, created_at)
		VALUES (:id, :role, :content, :created_at)`, msg)
	if err != nil {
		return nil, fmt.Errorf("appending message: %w", err)
	}
	return &msg, nil
}

// GetConversation returns the most recent limit turns in chronological
// order. limit <= 0 returns the whole transcript.
func (s *SQLiteStore) GetConversation(ctx context.Context, limit int) ([]model.ChatMessage, error) {
	query := `
		SELECT id, role, content, created_at
		FROM conversation ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	var msgs []model.ChatMessage
	if err := s.db.SelectContext(ctx, &msgs, query); err != nil {
		return nil, fmt.Errorf("querying conversation: %w", err)
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// ClearConversation deletes the whole transcript.
func (s *SQLiteStore) ClearConversation(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM conversation"); err != nil {
		return fmt.Errorf("clearing conversation: %w", err)
	}
	return nil
}
