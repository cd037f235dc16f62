package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/inbox-copilot/internal/model"
)

// SaveDigest records a generated digest. date is the requested day and
// may be empty.
func (s *SQLiteStore) SaveDigest(
	ctx context.Context,
	date string,
	d model.Digest,
) (*model.DigestRecord, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshaling digest: %w", err)
	}

	rec := model.DigestRecord{
		ID:        uuid.New().String(),
		Date:      date,
		Digest:    d,
		CreatedAt: time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO digests (id, digest_date, payload, created_at)
		VALUES (?, ?, ?, ?)`,
		rec.ID, rec.Date, string(payload), rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("saving digest: %w", err)
	}
	return &rec, nil
}

// LatestDigest returns the most recently saved digest, or ErrNotFound.
func (s *SQLiteStore) LatestDigest(ctx context.Context) (*model.DigestRecord, error) {
	row := s.db.QueryRowxContext(ctx, `
		SELECT id, digest_date, payload, created_at
		FROM digests ORDER BY created_at DESC, rowid DESC LIMIT 1`)

	rec, err := scanDigest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListDigests returns saved digests, newest first. limit <= 0 returns all.
func (s *SQLiteStore) ListDigests(ctx context.Context, limit int) ([]model.DigestRecord, error) {
	query := `
		SELECT id, digest_date, payload, created_at
		FROM digests ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying digests: %w", err)
	}
	defer rows.Close()

	var out []model.DigestRecord
	for rows.Next() {
		rec, err := scanDigest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// scanDigest scans a digest row from either a sqlx.Row or sqlx.Rows.
func scanDigest(r sqlx.ColScanner) (model.DigestRecord, error) {
	var (
		rec     model.DigestRecord
		payload string
	)

	if err := r.Scan(&rec.ID, &rec.Date, &payload, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.DigestRecord{}, err
		}
		return model.DigestRecord{}, fmt.Errorf("scanning digest row: %w", err)
	}

	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &rec.Digest); err != nil {
			return model.DigestRecord{}, fmt.Errorf("unmarshaling digest %s: %w", rec.ID, err)
		}
	}
	return rec, nil
}
