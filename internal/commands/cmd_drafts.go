package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/revdeck/internal/data/stores"
	"github.com/colonyops/revdeck/pkg/iojson"
)

type DraftsCmd struct {
	flags *Flags

	// flags
	jsonOutput bool
}

// NewDraftsCmd creates a new drafts command
func NewDraftsCmd(flags *Flags) *DraftsCmd {
	return &DraftsCmd{flags: flags}
}

// Register adds the drafts command to the application
func (cmd *DraftsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "drafts",
		Usage:     "List locally saved draft comments for a review request",
		UsageText: "revdeck drafts <review-request-id> [--json]",
		Description: `Draft comment text is saved locally as you type so a crashed or closed
viewer never loses work. This lists what is saved for a review request.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *DraftsCmd) run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() < 1 {
		return fmt.Errorf("missing review request id. Run 'revdeck drafts --help' for usage")
	}

	reviewID, err := strconv.Atoi(c.Args().First())
	if err != nil || reviewID < 1 {
		return fmt.Errorf("bad review request id %q", c.Args().First())
	}

	if cmd.flags.DB == nil {
		return fmt.Errorf("local database unavailable, no drafts to list")
	}

	draftStore := stores.NewDraftStore(cmd.flags.DB)
	drafts, err := draftStore.List(ctx, cmd.flags.Config.Server, reviewID)
	if err != nil {
		return fmt.Errorf("list drafts: %w", err)
	}

	if len(drafts) == 0 {
		if !cmd.jsonOutput {
			fmt.Fprintf(os.Stderr, "No drafts found\n")
		}
		return nil
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, d := range drafts {
			if err := iojson.WriteLine(out, d); err != nil {
				return fmt.Errorf("encode draft: %w", err)
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RANGE\tISSUE\tUPDATED\tTEXT")

	for _, d := range drafts {
		issue := ""
		if d.IssueOpened {
			issue = "open"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			d.RangeKey, issue, d.UpdatedAt.Format("2006-01-02 15:04"), firstLine(d.Text))
	}

	_ = w.Flush()
	return nil
}

// firstLine truncates draft text to a single table-friendly line.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}
