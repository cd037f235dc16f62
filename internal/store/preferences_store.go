package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/nhle/inbox-copilot/internal/model"
)

// GetPreferences returns the saved preferences, or model.DefaultPreferences
// when nothing has been saved yet.
func (s *SQLiteStore) GetPreferences(ctx context.Context) (model.Preferences, error) {
	var p model.Preferences
	err := s.db.GetContext(ctx, &p, `
		SELECT
			tone, reply_length,
			auto_generate, detect_distress, highlight_urgent, wellbeing_alerts,
			late_policy, extension_policy, honor_policy, grade_policy,
			signature, updated_at
		FROM preferences WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultPreferences(), nil
	}
	if err != nil {
		return model.Preferences{}, fmt.Errorf("getting preferences: %w", err)
	}
	return p, nil
}

// SavePreferences replaces the stored preferences.
func (s *SQLiteStore) SavePreferences(ctx context.Context, p model.Preferences) error {
	if !slices.Contains(model.Tones, p.Tone) {
		return fmt.Errorf("unknown tone %q", p.Tone)
	}
	if p.ReplyLength < 0 || p.ReplyLength > 100 {
		return fmt.Errorf("reply length %d out of range 0-100", p.ReplyLength)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO preferences (
			id, tone, reply_length,
			auto_generate, detect_distress, highlight_urgent, wellbeing_alerts,
			late_policy, extension_policy, honor_policy, grade_policy,
			signature, updated_at
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Tone, p.ReplyLength,
		boolToInt(p.AutoGenerate), boolToInt(p.DetectDistress),
		boolToInt(p.HighlightUrgent), boolToInt(p.WellbeingAlerts),
		p.LatePolicy, p.ExtensionPolicy, p.HonorPolicy, p.GradePolicy,
		p.Signature, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}
