package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/hay-kot/criterio"
)

// ReviewDraft is the publishable state of the current review: its summary
// text plus the number of draft comments attached to it.
type ReviewDraft struct {
	Summary     string
	BodyTop     string
	ShipIt      bool
	NumComments int
}

// Validate rejects an unpublishable draft before any network call is made.
func (d ReviewDraft) Validate() error {
	var errs criterio.FieldErrorsBuilder
	if strings.TrimSpace(d.Summary) == "" {
		errs = errs.Append("summary", fmt.Errorf("summary is required"))
	}
	if d.NumComments == 0 && strings.TrimSpace(d.BodyTop) == "" && !d.ShipIt {
		errs = errs.Append("comments", fmt.Errorf("a review needs at least one comment, a body, or ship-it"))
	}
	return errs.ToError()
}

// PublishReview validates and publishes the draft review. Validation
// failures surface synchronously as field errors; only a valid draft
// reaches the server.
func (c *Client) PublishReview(ctx context.Context, draft ReviewDraft) error {
	if err := draft.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"public":   true,
		"body_top": draft.BodyTop,
		"ship_it":  draft.ShipIt,
	})
	if err != nil {
		return err
	}

	path := fmt.Sprintf("api/review-requests/%d/reviews/draft/", c.reviewID)
	body, err := c.send(ctx, http.MethodPut, path, payload)
	if err != nil {
		return fmt.Errorf("publish review: %w", err)
	}

	var resp struct {
		Stat string `json:"stat"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("publish review: decode response: %w", err)
	}
	if resp.Stat != "ok" {
		return fmt.Errorf("publish review: server stat %q", resp.Stat)
	}
	return nil
}
