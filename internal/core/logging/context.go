package logging

import "context"

type contextKey string

const (
	reviewRequestIDKey contextKey = "review_request_id"
	revisionKey        contextKey = "revision"
)

// WithReviewRequestID adds a review request ID to the context.
func WithReviewRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, reviewRequestIDKey, id)
}

// WithRevision adds a diff revision label to the context.
func WithRevision(ctx context.Context, revision string) context.Context {
	return context.WithValue(ctx, revisionKey, revision)
}

// GetReviewRequestID retrieves the review request ID from the context.
// Returns empty string if not present.
func GetReviewRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(reviewRequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetRevision retrieves the diff revision label from the context.
// Returns empty string if not present.
func GetRevision(ctx context.Context) string {
	if rev, ok := ctx.Value(revisionKey).(string); ok {
		return rev
	}
	return ""
}
