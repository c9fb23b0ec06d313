// Package api is the HTTP client for a Review Board compatible server. It
// covers the four endpoints the diff viewer needs: comment-fragment
// batches, chunk fragments for expand/collapse, the diff-context JSON, and
// the draft-comment resource.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gregjones/httpcache"
	"github.com/rs/zerolog"

	"github.com/colonyops/revdeck/internal/core/fragment"
	"github.com/colonyops/revdeck/internal/core/logging"
)

var _ fragment.Fetcher = (*Client)(nil)

// Client talks to one review request on one server.
type Client struct {
	http     *http.Client
	base     *url.URL // server root, trailing slash
	token    string
	reviewID int
	log      zerolog.Logger
}

// Options configures a Client.
type Options struct {
	// HTTPClient overrides the default caching client, mainly for tests.
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewClient creates a client for the review request at
// <server>/r/<reviewRequestID>/. Responses are cached in memory keyed by
// ETag so revisiting a revision does not refetch unchanged fragments.
func NewClient(server string, reviewRequestID int, token string, opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(server, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("server url %q: %w", server, err)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   timeout,
		}
	}

	return &Client{
		http:     hc,
		base:     base,
		token:    token,
		reviewID: reviewRequestID,
		log:      logging.Component("api"),
	}, nil
}

// ReviewRequestID returns the review request the client is bound to.
func (c *Client) ReviewRequestID() int { return c.reviewID }

// reviewPath returns the path under the review request, e.g.
// "r/42/diff/3/fragment/".
func (c *Client) reviewPath(parts ...string) string {
	return fmt.Sprintf("r/%d/%s", c.reviewID, strings.Join(parts, "/"))
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := *c.base
	u.Path += path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) auth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}
}

// cacheBuster is the `_` query parameter the fragment endpoints require so
// intermediate proxies never serve a stale comment fragment.
func cacheBuster() string {
	return uuid.NewString()
}

// FetchFragments fetches the binary fragment batch for a set of comment
// IDs. batchKey is "<revision>" or "<revision>-<interdiff>". It implements
// the fragment fetcher used by the load queue.
func (c *Client) FetchFragments(ctx context.Context, batchKey string, commentIDs []string) ([]byte, error) {
	q := url.Values{}
	q.Set("lines_of_context", "0")
	q.Set("allow_expansion", "1")
	q.Set("_", cacheBuster())

	path := c.reviewPath("_fragments", "diff-comments", strings.Join(commentIDs, ","), "")
	c.log.Debug().
		Str("batch", batchKey).
		Int("comments", len(commentIDs)).
		Msg("fetching comment fragments")

	return c.get(ctx, path, q)
}

// ChunkFragmentRequest parameterizes one chunk fetch.
type ChunkFragmentRequest struct {
	Revision          int
	InterdiffRevision int
	FileDiffID        int
	InterFileDiffID   int
	ChunkIndex        int // -1 fetches the whole file's fragment
	LinesOfContext    int // ignored when WholeFile
	WholeFile         bool
	BaseFileDiffID    int
	ShowDeleted       bool
}

// GetChunkFragment fetches replacement HTML for one chunk (or the whole
// file) at the requested context depth.
func (c *Client) GetChunkFragment(ctx context.Context, r ChunkFragmentRequest) ([]byte, error) {
	rev := strconv.Itoa(r.Revision)
	if r.InterdiffRevision > 0 {
		rev += "-" + strconv.Itoa(r.InterdiffRevision)
	}
	fileID := strconv.Itoa(r.FileDiffID)
	if r.InterFileDiffID > 0 {
		fileID += "-" + strconv.Itoa(r.InterFileDiffID)
	}

	parts := []string{"diff", rev, "fragment", fileID}
	if r.ChunkIndex >= 0 {
		parts = append(parts, "chunk", strconv.Itoa(r.ChunkIndex))
	}
	parts = append(parts, "")

	q := url.Values{}
	q.Set("index", strconv.Itoa(r.ChunkIndex))
	if !r.WholeFile {
		q.Set("lines-of-context", strconv.Itoa(r.LinesOfContext))
	}
	if r.BaseFileDiffID > 0 {
		q.Set("base-filediff-id", strconv.Itoa(r.BaseFileDiffID))
	}
	if r.ShowDeleted {
		q.Set("show-deleted", "1")
	}
	q.Set("skip-static-media", "1")
	q.Set("_", cacheBuster())

	return c.get(ctx, c.reviewPath(parts...), q)
}

// DiffContext is the revision metadata for a review request's diffs.
type DiffContext struct {
	Revision struct {
		Revision          int  `json:"revision"`
		InterdiffRevision int  `json:"interdiff_revision"`
		IsInterdiff       bool `json:"is_interdiff"`
		IsDraftDiff       bool `json:"is_draft_diff"`
		LatestRevision    int  `json:"latest_revision"`
	} `json:"revision"`
	Pagination struct {
		CurrentPage int `json:"current_page"`
		Pages       int `json:"pages"`
	} `json:"pagination"`
	Commits           []Commit           `json:"commits"`
	CommitHistoryDiff []CommitHistoryRow `json:"commit_history_diff"`
	NumDiffs          int                `json:"num_diffs"`
}

// Commit is one commit in a multi-commit diff.
type Commit struct {
	ID            int    `json:"id"`
	CommitID      string `json:"commit_id"`
	ParentID      string `json:"parent_id"`
	AuthorName    string `json:"author_name"`
	CommitMessage string `json:"commit_message"`
}

// CommitHistoryRow is one entry in the history diff between two commit
// series.
type CommitHistoryRow struct {
	EntryType   string `json:"entry_type"`
	OldCommitID int    `json:"old_commit_id"`
	NewCommitID int    `json:"new_commit_id"`
}

// GetDiffContext fetches revision/commit metadata for a revision, optionally
// constrained to an interdiff pair or a commit range.
func (c *Client) GetDiffContext(ctx context.Context, revision, interdiff int, baseCommitID, tipCommitID string) (*DiffContext, error) {
	q := url.Values{}
	q.Set("revision", strconv.Itoa(revision))
	if interdiff > 0 {
		q.Set("interdiff-revision", strconv.Itoa(interdiff))
	}
	if baseCommitID != "" {
		q.Set("base-commit-id", baseCommitID)
	}
	if tipCommitID != "" {
		q.Set("tip-commit-id", tipCommitID)
	}

	body, err := c.get(ctx, fmt.Sprintf("api/review-requests/%d/diff-context/", c.reviewID), q)
	if err != nil {
		return nil, err
	}

	var dc DiffContext
	if err := json.Unmarshal(body, &dc); err != nil {
		return nil, fmt.Errorf("diff-context: %w", err)
	}
	return &dc, nil
}
