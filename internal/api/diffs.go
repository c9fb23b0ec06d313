package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/colonyops/revdeck/internal/core/difftable"
)

// filesResponse is the files listing for one diff revision.
type filesResponse struct {
	Stat  string `json:"stat"`
	Files []struct {
		ID         int64  `json:"id"`
		SourceFile string `json:"source_file"`
		DestFile   string `json:"dest_file"`
		SourceRev  string `json:"source_revision"`
		DestRev    string `json:"dest_detail"`
		Binary     bool   `json:"binary"`
		Deleted    bool   `json:"deleted"`
		IsNew      bool   `json:"is_new"`
		ExtraData  struct {
			SerializedComments map[string][]difftable.SerializedComment `json:"serialized_comment_blocks"`
		} `json:"extra_data"`
	} `json:"files"`
}

// GetFiles lists the files of one diff revision page, in server order. The
// returned entries carry the serialized comment blocks the server attached
// to each file.
func (c *Client) GetFiles(ctx context.Context, revision, page int) ([]difftable.DiffFile, error) {
	q := url.Values{}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}

	path := fmt.Sprintf("api/review-requests/%d/diffs/%d/files/", c.reviewID, revision)
	body, err := c.get(ctx, path, q)
	if err != nil {
		return nil, err
	}

	var resp filesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode files response: %w", err)
	}
	if resp.Stat != "ok" {
		return nil, fmt.Errorf("list files: server stat %q", resp.Stat)
	}

	files := make([]difftable.DiffFile, 0, len(resp.Files))
	for i, f := range resp.Files {
		files = append(files, difftable.DiffFile{
			ID:                 f.ID,
			FileDiffID:         f.ID,
			OrigFilename:       f.SourceFile,
			ModifiedFilename:   f.DestFile,
			OrigRevision:       f.SourceRev,
			ModifiedRevision:   f.DestRev,
			Binary:             f.Binary,
			Deleted:            f.Deleted,
			IsNew:              f.IsNew,
			Index:              i,
			SerializedComments: f.ExtraData.SerializedComments,
		})
	}
	return files, nil
}

// GetPatch fetches one file's raw unified diff for a revision.
func (c *Client) GetPatch(ctx context.Context, revision int, fileDiffID int64) ([]byte, error) {
	path := fmt.Sprintf("api/review-requests/%d/diffs/%d/files/%d/", c.reviewID, revision, fileDiffID)

	u, err := c.base.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("build patch url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build patch request: %w", err)
	}
	req.Header.Set("Accept", "text/x-patch")
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch patch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch patch: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
