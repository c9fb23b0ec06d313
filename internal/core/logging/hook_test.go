package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextHook_Run(t *testing.T) {
	tests := []struct {
		name      string
		setupCtx  func() context.Context
		wantKeys  []string
		wantEmpty []string
	}{
		{
			name: "both review_request_id and revision",
			setupCtx: func() context.Context {
				ctx := context.Background()
				ctx = WithReviewRequestID(ctx, "42")
				ctx = WithRevision(ctx, "3")
				return ctx
			},
			wantKeys: []string{"review_request_id", "revision"},
		},
		{
			name: "only review_request_id",
			setupCtx: func() context.Context {
				return WithReviewRequestID(context.Background(), "42")
			},
			wantKeys:  []string{"review_request_id"},
			wantEmpty: []string{"revision"},
		},
		{
			name: "only revision",
			setupCtx: func() context.Context {
				return WithRevision(context.Background(), "3-5")
			},
			wantKeys:  []string{"revision"},
			wantEmpty: []string{"review_request_id"},
		},
		{
			name:      "no context values",
			setupCtx:  context.Background,
			wantEmpty: []string{"review_request_id", "revision"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ctx := tt.setupCtx()

			logger := zerolog.New(&buf).Hook(ContextHook{})
			logger.Info().Ctx(ctx).Msg("test")

			var logEntry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
				t.Fatalf("failed to parse log: %v", err)
			}

			for _, key := range tt.wantKeys {
				if _, ok := logEntry[key]; !ok {
					t.Errorf("expected %s to be present in log", key)
				}
			}

			for _, key := range tt.wantEmpty {
				if _, ok := logEntry[key]; ok {
					t.Errorf("expected %s to be absent from log", key)
				}
			}
		})
	}
}
