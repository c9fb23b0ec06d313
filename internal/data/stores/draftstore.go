package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/revdeck/internal/data/db"
)

// DraftText is unsynced draft-comment text for one comment block, keyed by
// the block's line-range key. It survives a crash or a dropped connection
// before the draft reaches the server.
type DraftText struct {
	Server          string
	ReviewRequestID int
	RangeKey        string
	Text            string
	RichText        bool
	IssueOpened     bool
	UpdatedAt       time.Time
}

// DraftStore persists unsynced draft text.
type DraftStore struct {
	db *db.DB
}

// NewDraftStore creates a new SQLite-backed draft store.
func NewDraftStore(db *db.DB) *DraftStore {
	return &DraftStore{db: db}
}

// Put upserts the draft text for a block.
func (s *DraftStore) Put(ctx context.Context, d DraftText) error {
	_, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO draft_text (server, review_request_id, range_key, text, rich_text, issue_opened, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (server, review_request_id, range_key) DO UPDATE SET
			text = excluded.text,
			rich_text = excluded.rich_text,
			issue_opened = excluded.issue_opened,
			updated_at = excluded.updated_at
	`,
		d.Server, d.ReviewRequestID, d.RangeKey,
		d.Text, d.RichText, d.IssueOpened, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save draft text: %w", err)
	}
	return nil
}

// Get returns draft text for a block. Returns ErrNotFound if none exists.
func (s *DraftStore) Get(ctx context.Context, server string, reviewRequestID int, rangeKey string) (DraftText, error) {
	row := s.db.Conn().QueryRowContext(ctx, `
		SELECT server, review_request_id, range_key, text, rich_text, issue_opened, updated_at
		FROM draft_text
		WHERE server = ? AND review_request_id = ? AND range_key = ?
	`, server, reviewRequestID, rangeKey)

	var d DraftText
	var updatedAt int64
	err := row.Scan(
		&d.Server, &d.ReviewRequestID, &d.RangeKey,
		&d.Text, &d.RichText, &d.IssueOpened, &updatedAt,
	)
	if IsNotFoundError(err) {
		return DraftText{}, ErrNotFound
	}
	if err != nil {
		return DraftText{}, fmt.Errorf("failed to get draft text: %w", err)
	}

	d.UpdatedAt = time.Unix(0, updatedAt)
	return d, nil
}

// List returns every unsynced draft for a review request, most recently
// updated first.
func (s *DraftStore) List(ctx context.Context, server string, reviewRequestID int) ([]DraftText, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT server, review_request_id, range_key, text, rich_text, issue_opened, updated_at
		FROM draft_text
		WHERE server = ? AND review_request_id = ?
		ORDER BY updated_at DESC
	`, server, reviewRequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list draft text: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var drafts []DraftText
	for rows.Next() {
		var d DraftText
		var updatedAt int64
		if err := rows.Scan(
			&d.Server, &d.ReviewRequestID, &d.RangeKey,
			&d.Text, &d.RichText, &d.IssueOpened, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan draft text: %w", err)
		}
		d.UpdatedAt = time.Unix(0, updatedAt)
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// Delete removes the draft for a block, typically after the draft has been
// saved to the server.
func (s *DraftStore) Delete(ctx context.Context, server string, reviewRequestID int, rangeKey string) error {
	_, err := s.db.Conn().ExecContext(ctx,
		"DELETE FROM draft_text WHERE server = ? AND review_request_id = ? AND range_key = ?",
		server, reviewRequestID, rangeKey,
	)
	if err != nil {
		return fmt.Errorf("failed to delete draft text: %w", err)
	}
	return nil
}
