package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts review_request_id and revision from context and adds
// them to log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if id := GetReviewRequestID(ctx); id != "" {
		e.Str("review_request_id", id)
	}

	if rev := GetRevision(ctx); rev != "" {
		e.Str("revision", rev)
	}
}
