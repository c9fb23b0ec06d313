package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tea "charm.land/bubbletea/v2"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/revdeck/internal/api"
	"github.com/colonyops/revdeck/internal/core/router"
	"github.com/colonyops/revdeck/internal/data/stores"
	"github.com/colonyops/revdeck/internal/tui"
)

type ViewCmd struct {
	flags *Flags

	// flags
	resume bool
}

// NewViewCmd creates a new view command
func NewViewCmd(flags *Flags) *ViewCmd {
	return &ViewCmd{flags: flags}
}

// Register adds the view command to the application
func (cmd *ViewCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "view",
		Usage:     "Open the diff viewer for a review request",
		UsageText: "revdeck view <review-request-id> [route]",
		Description: `Opens the interactive diff viewer. The optional route argument selects
the diff revision, filename filter, and initial anchor:

  revdeck view 42                               latest revision
  revdeck view 42 3                             revision 3
  revdeck view 42 3-5                           interdiff between 3 and 5
  revdeck view 42 '3/?filenames=*.go#file12'    filtered, jump to anchor

With --resume the last saved position for the review request is restored.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "resume",
				Usage:       "restore the last viewed revision and anchor",
				Destination: &cmd.resume,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ViewCmd) run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() < 1 {
		return fmt.Errorf("missing review request id. Run 'revdeck view --help' for usage")
	}

	reviewID, err := strconv.Atoi(c.Args().First())
	if err != nil || reviewID < 1 {
		return fmt.Errorf("bad review request id %q", c.Args().First())
	}

	var route router.Route
	if raw := c.Args().Get(1); raw != "" {
		route, err = router.Parse(raw)
		if err != nil {
			return err
		}
	}

	cfg := cmd.flags.Config

	token, err := cfg.Token()
	if err != nil {
		return fmt.Errorf("resolve api token: %w", err)
	}

	client, err := api.NewClient(cfg.Server, reviewID, token, api.Options{})
	if err != nil {
		return err
	}

	var (
		resumeStore *stores.ResumeStore
		draftStore  *stores.DraftStore
	)
	if cmd.flags.DB != nil {
		resumeStore = stores.NewResumeStore(cmd.flags.DB)
		draftStore = stores.NewDraftStore(cmd.flags.DB)
	}

	if cmd.resume && c.Args().Get(1) == "" && resumeStore != nil {
		state, err := resumeStore.Get(ctx, cfg.Server, reviewID)
		switch {
		case err == nil:
			route = router.Route{
				Revision:          state.Revision,
				InterdiffRevision: state.InterdiffRevision,
				Page:              state.Page,
				Anchor:            state.Anchor,
			}
		case errors.Is(err, stores.ErrNotFound):
			// nothing saved yet, start at the latest revision
		default:
			return fmt.Errorf("load resume state: %w", err)
		}
	}

	m := tui.New(cfg, client, resumeStore, draftStore, route)
	p := tea.NewProgram(m)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}

	return nil
}
