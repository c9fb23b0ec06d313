// Package comments models comment blocks: the aggregate of published
// comments plus at most one draft anchored to one location in reviewable
// content. Persistence goes through the review server's comment resources;
// the block only owns lifecycle and counting.
package comments

import (
	"context"
)

// Comment is one comment as held by a block, published or draft.
type Comment struct {
	ID          int64
	Text        string
	RichText    bool
	IssueOpened bool
	IssueStatus IssueStatus
	User        string
	// Extra carries untyped key/value data round-tripped to the server,
	// used for region bounds and verification flags.
	Extra map[string]string
}

// Store is the external comment-persistence collaborator: create/update and
// delete of a comment resource scoped to a review.
type Store interface {
	// SaveComment creates the comment when ID is zero, updates it
	// otherwise, and returns the stored form.
	SaveComment(ctx context.Context, c Comment) (Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}
