package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/revdeck/internal/core/config"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "revdeck config validate [options]",
				Description: "Validates the configuration file, checking the server URL, token file, data directory, keybindings, and filename glob patterns.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

func (cmd *ConfigValidateCmd) run(ctx context.Context, c *cli.Command) error {
	validateErr := cmd.flags.Config.ValidateDeep(cmd.flags.ConfigPath)
	warnings := cmd.flags.Config.Warnings()

	if cmd.format == "json" {
		return cmd.outputJSON(c, validateErr, warnings)
	}

	return cmd.outputText(c, validateErr, warnings)
}

func (cmd *ConfigValidateCmd) outputJSON(c *cli.Command, validateErr error, warnings []config.ValidationWarning) error {
	out := struct {
		Valid    bool                       `json:"valid"`
		Error    string                     `json:"error,omitempty"`
		Warnings []config.ValidationWarning `json:"warnings,omitempty"`
	}{
		Valid:    validateErr == nil,
		Warnings: warnings,
	}
	if validateErr != nil {
		out.Error = validateErr.Error()
	}

	enc := json.NewEncoder(c.Root().Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}

	if validateErr != nil {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *ConfigValidateCmd) outputText(c *cli.Command, validateErr error, warnings []config.ValidationWarning) error {
	out := c.Root().Writer

	for _, warn := range warnings {
		fmt.Fprintf(out, "warning: %s: %s", warn.Category, warn.Message)
		if warn.Item != "" {
			fmt.Fprintf(out, " (%s)", warn.Item)
		}
		fmt.Fprintln(out)
	}

	if validateErr != nil {
		fmt.Fprintf(out, "invalid: %s\n", validateErr)
		return cli.Exit("", 1)
	}

	fmt.Fprintln(out, "Configuration is valid")
	return nil
}
