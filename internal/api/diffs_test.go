package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFiles(t *testing.T) {
	t.Parallel()

	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{
			"stat": "ok",
			"files": [
				{"id": 101, "source_file": "a.go", "dest_file": "a.go", "binary": false},
				{"id": 102, "source_file": "gone.go", "dest_file": "gone.go", "deleted": true,
				 "extra_data": {"serialized_comment_blocks": {"4-2": [
					{"comment_id": 9, "text": "hm", "issue_opened": true, "issue_status": "open"}
				 ]}}}
			]
		}`))
	}))

	files, err := c.GetFiles(context.Background(), 3, 1)
	require.NoError(t, err)

	assert.Equal(t, "/api/review-requests/42/diffs/3/files/", gotPath)
	require.Len(t, files, 2)

	assert.Equal(t, int64(101), files[0].FileDiffID)
	assert.Equal(t, "a.go", files[0].ModifiedFilename)
	assert.Equal(t, 0, files[0].Index)

	assert.True(t, files[1].Deleted)
	assert.Equal(t, 1, files[1].Index)
	serialized := files[1].SerializedComments["4-2"]
	require.Len(t, serialized, 1)
	assert.Equal(t, int64(9), serialized[0].CommentID)
	assert.Equal(t, "open", serialized[0].IssueStatus)
}

func TestGetFilesBadStat(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"stat": "fail"}`))
	}))

	_, err := c.GetFiles(context.Background(), 3, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fail")
}

func TestGetPatch(t *testing.T) {
	t.Parallel()

	patch := "--- a/a.go\n+++ b/a.go\n@@ -1 +1 @@\n-old\n+new\n"
	var gotAccept, gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(patch))
	}))

	body, err := c.GetPatch(context.Background(), 3, 101)
	require.NoError(t, err)

	assert.Equal(t, patch, string(body))
	assert.Equal(t, "text/x-patch", gotAccept)
	assert.Equal(t, "/api/review-requests/42/diffs/3/files/101/", gotPath)
}

func TestPublishReviewValidation(t *testing.T) {
	t.Parallel()

	requests := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(`{"stat": "ok"}`))
	}))

	err := c.PublishReview(context.Background(), ReviewDraft{})
	require.Error(t, err)
	assert.Equal(t, 0, requests, "validation failure must precede any network call")

	assert.Contains(t, err.Error(), "summary")
}

func TestPublishReview(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"stat": "ok"}`))
	}))

	err := c.PublishReview(context.Background(), ReviewDraft{
		Summary:     "looks good overall",
		NumComments: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/review-requests/42/reviews/draft/", gotPath)
}
