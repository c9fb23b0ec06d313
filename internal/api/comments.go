package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/colonyops/revdeck/internal/core/comments"
)

var _ comments.Store = (*CommentStore)(nil)

// CommentStore persists draft diff comments against the review draft
// resource. It implements the comment store used by the block model.
type CommentStore struct {
	client *Client

	// FileDiffID scopes created comments to one file of the diff.
	FileDiffID      int
	InterFileDiffID int
}

// NewCommentStore returns a store bound to one file diff.
func (c *Client) NewCommentStore(fileDiffID, interFileDiffID int) *CommentStore {
	return &CommentStore{client: c, FileDiffID: fileDiffID, InterFileDiffID: interFileDiffID}
}

type commentPayload struct {
	ID          int64  `json:"id,omitempty"`
	Text        string `json:"text"`
	TextType    string `json:"text_type"`
	IssueOpened bool   `json:"issue_opened"`
	FileDiffID  int    `json:"filediff_id,omitempty"`
	FirstLine   int    `json:"first_line,omitempty"`
	NumLines    int    `json:"num_lines,omitempty"`
}

type commentResponse struct {
	Stat        string `json:"stat"`
	DiffComment struct {
		ID          int64  `json:"id"`
		Text        string `json:"text"`
		TextType    string `json:"text_type"`
		IssueOpened bool   `json:"issue_opened"`
		IssueStatus string `json:"issue_status"`
	} `json:"diff_comment"`
}

// SaveComment creates the draft comment when its ID is zero, otherwise
// updates it in place. The returned comment carries the server-assigned ID.
func (s *CommentStore) SaveComment(ctx context.Context, cm comments.Comment) (comments.Comment, error) {
	payload := commentPayload{
		ID:          cm.ID,
		Text:        cm.Text,
		TextType:    "plain",
		IssueOpened: cm.IssueOpened,
		FileDiffID:  s.FileDiffID,
	}
	if cm.RichText {
		payload.TextType = "markdown"
	}
	if v, ok := cm.Extra["beginLineNum"]; ok {
		payload.FirstLine, _ = strconv.Atoi(v)
	}
	if v, ok := cm.Extra["numLines"]; ok {
		payload.NumLines, _ = strconv.Atoi(v)
	}

	method := http.MethodPost
	path := s.collectionPath()
	if cm.ID != 0 {
		method = http.MethodPut
		path = s.resourcePath(cm.ID)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return comments.Comment{}, err
	}

	resp, err := s.client.send(ctx, method, path, body)
	if err != nil {
		return comments.Comment{}, fmt.Errorf("save comment: %w", err)
	}

	var parsed commentResponse
	if err := json.Unmarshal(resp, &parsed); err != nil {
		return comments.Comment{}, fmt.Errorf("save comment: %w", err)
	}
	if parsed.Stat != "ok" {
		return comments.Comment{}, fmt.Errorf("save comment: server stat %q", parsed.Stat)
	}

	saved := cm
	saved.ID = parsed.DiffComment.ID
	saved.Text = parsed.DiffComment.Text
	saved.RichText = parsed.DiffComment.TextType == "markdown"
	saved.IssueOpened = parsed.DiffComment.IssueOpened
	saved.IssueStatus = comments.IssueStatus(parsed.DiffComment.IssueStatus)
	return saved, nil
}

// DeleteComment removes a persisted draft comment.
func (s *CommentStore) DeleteComment(ctx context.Context, id int64) error {
	if _, err := s.client.send(ctx, http.MethodDelete, s.resourcePath(id), nil); err != nil {
		return fmt.Errorf("delete comment %d: %w", id, err)
	}
	return nil
}

func (s *CommentStore) collectionPath() string {
	return fmt.Sprintf("api/review-requests/%d/reviews/draft/diff-comments/", s.client.reviewID)
}

func (s *CommentStore) resourcePath(id int64) string {
	return s.collectionPath() + strconv.FormatInt(id, 10) + "/"
}

// send issues a JSON request and returns the response body. 2xx statuses
// succeed; DELETE tolerates an empty body.
func (c *Client) send(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	u := *c.base
	u.Path += path

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
