// Package stores holds the SQLite-backed stores for local viewer state.
// Nothing here ever writes to the review server; drafts synced to the
// server live on the server, these tables only make reopening a review
// land where the user left off.
package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/revdeck/internal/data/db"
)

// ResumeState is the last viewing position for one review request on one
// server.
type ResumeState struct {
	Server            string
	ReviewRequestID   int
	Revision          int
	InterdiffRevision int
	Page              int
	Anchor            string
	UpdatedAt         time.Time
}

// ResumeStore persists resume positions.
type ResumeStore struct {
	db *db.DB
}

// NewResumeStore creates a new SQLite-backed resume store.
func NewResumeStore(db *db.DB) *ResumeStore {
	return &ResumeStore{db: db}
}

// Save upserts the resume position for the state's review request.
func (s *ResumeStore) Save(ctx context.Context, state ResumeState) error {
	_, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO resume_state (server, review_request_id, revision, interdiff_revision, page, anchor, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (server, review_request_id) DO UPDATE SET
			revision = excluded.revision,
			interdiff_revision = excluded.interdiff_revision,
			page = excluded.page,
			anchor = excluded.anchor,
			updated_at = excluded.updated_at
	`,
		state.Server, state.ReviewRequestID, state.Revision,
		state.InterdiffRevision, state.Page, state.Anchor,
		time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save resume state: %w", err)
	}
	return nil
}

// Get returns the resume position for a review request. Returns ErrNotFound
// if none is recorded.
func (s *ResumeStore) Get(ctx context.Context, server string, reviewRequestID int) (ResumeState, error) {
	row := s.db.Conn().QueryRowContext(ctx, `
		SELECT server, review_request_id, revision, interdiff_revision, page, anchor, updated_at
		FROM resume_state
		WHERE server = ? AND review_request_id = ?
	`, server, reviewRequestID)

	var state ResumeState
	var updatedAt int64
	err := row.Scan(
		&state.Server, &state.ReviewRequestID, &state.Revision,
		&state.InterdiffRevision, &state.Page, &state.Anchor, &updatedAt,
	)
	if IsNotFoundError(err) {
		return ResumeState{}, ErrNotFound
	}
	if err != nil {
		return ResumeState{}, fmt.Errorf("failed to get resume state: %w", err)
	}

	state.UpdatedAt = time.Unix(0, updatedAt)
	return state, nil
}

// Delete removes the resume position for a review request. Deleting a
// missing row is not an error.
func (s *ResumeStore) Delete(ctx context.Context, server string, reviewRequestID int) error {
	_, err := s.db.Conn().ExecContext(ctx,
		"DELETE FROM resume_state WHERE server = ? AND review_request_id = ?",
		server, reviewRequestID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete resume state: %w", err)
	}
	return nil
}
