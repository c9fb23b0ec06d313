package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/revdeck/internal/api"
	"github.com/colonyops/revdeck/internal/data/stores"
	"github.com/colonyops/revdeck/pkg/iojson"
)

// PublishInput is the JSON shape accepted via --file or piped stdin. All
// fields are optional and override the corresponding command flags.
type PublishInput struct {
	Summary string `json:"summary"`
	BodyTop string `json:"body_top"`
	ShipIt  bool   `json:"ship_it"`
}

type PublishCmd struct {
	flags *Flags
	fr    *iojson.FileReader[PublishInput]

	// flags
	summary string
	bodyTop string
	shipIt  bool
}

// NewPublishCmd creates a new publish command
func NewPublishCmd(flags *Flags) *PublishCmd {
	return &PublishCmd{
		flags: flags,
		fr:    &iojson.FileReader[PublishInput]{},
	}
}

// Register adds the publish command to the application
func (cmd *PublishCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "publish",
		Usage: "Publish the pending review for a review request",
		UsageText: `revdeck publish <review-request-id> [options]

From flags:
  revdeck publish 42 --summary "LGTM with nits" --ship-it

From a JSON file:
  revdeck publish 42 -f review.json`,
		Description: `Publishes the draft review on the server, making its comments visible
to other reviewers. The draft is validated before anything is sent: a
review needs a summary, plus at least one comment, a body, or ship-it.

Draft comment count comes from the local draft store, so run this from
the same machine the comments were written on.`,
		Flags: []cli.Flag{
			cmd.fr.Flag(),
			&cli.StringFlag{
				Name:        "summary",
				Aliases:     []string{"s"},
				Usage:       "one-line review summary",
				Destination: &cmd.summary,
			},
			&cli.StringFlag{
				Name:        "body",
				Usage:       "review body shown above the comments",
				Destination: &cmd.bodyTop,
			},
			&cli.BoolFlag{
				Name:        "ship-it",
				Usage:       "mark the review as approved",
				Destination: &cmd.shipIt,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *PublishCmd) run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() < 1 {
		return fmt.Errorf("missing review request id. Run 'revdeck publish --help' for usage")
	}

	reviewID, err := strconv.Atoi(c.Args().First())
	if err != nil || reviewID < 1 {
		return fmt.Errorf("bad review request id %q", c.Args().First())
	}

	draft := api.ReviewDraft{
		Summary: cmd.summary,
		BodyTop: cmd.bodyTop,
		ShipIt:  cmd.shipIt,
	}

	if c.String("file") != "" {
		input, err := cmd.fr.Read()
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		if input.Summary != "" {
			draft.Summary = input.Summary
		}
		if input.BodyTop != "" {
			draft.BodyTop = input.BodyTop
		}
		draft.ShipIt = draft.ShipIt || input.ShipIt
	}

	cfg := cmd.flags.Config

	if cmd.flags.DB != nil {
		draftStore := stores.NewDraftStore(cmd.flags.DB)
		drafts, err := draftStore.List(ctx, cfg.Server, reviewID)
		if err != nil {
			return fmt.Errorf("list drafts: %w", err)
		}
		draft.NumComments = len(drafts)
	}

	token, err := cfg.Token()
	if err != nil {
		return fmt.Errorf("resolve api token: %w", err)
	}

	client, err := api.NewClient(cfg.Server, reviewID, token, api.Options{})
	if err != nil {
		return err
	}

	if err := client.PublishReview(ctx, draft); err != nil {
		return err
	}

	fmt.Fprintf(c.Root().Writer, "Published review for request %d\n", reviewID)
	return nil
}
