package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/revdeck/internal/core/config"
)

func publishApp(cfg *config.Config) (*cli.Command, *bytes.Buffer) {
	flags := &Flags{Config: cfg}

	var buf bytes.Buffer
	app := &cli.Command{
		Name:   "revdeck",
		Writer: &buf,
	}
	NewPublishCmd(flags).Register(app)

	return app, &buf
}

func TestPublishCmd_RejectsEmptySummary(t *testing.T) {
	app, _ := publishApp(&config.Config{Server: "https://reviews.example.test"})

	// Validation runs before any request is sent, so no server is needed.
	err := app.Run(context.Background(), []string{"revdeck", "publish", "42", "--ship-it"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summary")
}

func TestPublishCmd_RejectsEmptyReview(t *testing.T) {
	app, _ := publishApp(&config.Config{Server: "https://reviews.example.test"})

	err := app.Run(context.Background(), []string{"revdeck", "publish", "42", "--summary", "looks good"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "comment")
}

func TestPublishCmd_FileInputOverridesFlags(t *testing.T) {
	app, _ := publishApp(&config.Config{Server: "https://reviews.example.test"})

	path := filepath.Join(t.TempDir(), "review.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"body_top":"ship it"}`), 0o644))

	// Summary stays empty, so the file-provided body alone is still
	// rejected; the error proves the file was merged in before validation.
	err := app.Run(context.Background(), []string{"revdeck", "publish", "42", "-f", path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summary")
	assert.NotContains(t, err.Error(), "comment")
}

func TestPublishCmd_BadID(t *testing.T) {
	app, _ := publishApp(&config.Config{Server: "https://reviews.example.test"})

	err := app.Run(context.Background(), []string{"revdeck", "publish", "0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad review request id")
}
