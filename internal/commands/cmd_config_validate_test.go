package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/revdeck/internal/core/config"
)

func validConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server = "https://reviews.example.test"
	cfg.DataDir = t.TempDir()
	return &cfg
}

func configValidateApp(cfg *config.Config) (*cli.Command, *bytes.Buffer) {
	flags := &Flags{Config: cfg}

	var buf bytes.Buffer
	app := &cli.Command{
		Name:   "revdeck",
		Writer: &buf,
	}
	NewConfigValidateCmd(flags).Register(app)

	return app, &buf
}

func TestConfigValidateCmd_Valid(t *testing.T) {
	app, buf := configValidateApp(validConfig(t))

	err := app.Run(context.Background(), []string{"revdeck", "config", "validate"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Configuration is valid")
	// no token configured, warning expected
	assert.Contains(t, buf.String(), "warning: Auth")
}

func TestConfigValidateCmd_InvalidServer(t *testing.T) {
	cfg := validConfig(t)
	cfg.Server = "not-a-url"
	app, buf := configValidateApp(cfg)

	err := app.Run(context.Background(), []string{"revdeck", "config", "validate"})
	require.Error(t, err)
	assert.Contains(t, buf.String(), "invalid")
	assert.Contains(t, buf.String(), "server")
}

func TestConfigValidateCmd_JSON(t *testing.T) {
	app, buf := configValidateApp(validConfig(t))

	err := app.Run(context.Background(), []string{"revdeck", "config", "validate", "--format", "json"})
	require.NoError(t, err)

	var out struct {
		Valid    bool                       `json:"valid"`
		Error    string                     `json:"error"`
		Warnings []config.ValidationWarning `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.True(t, out.Valid)
	assert.Empty(t, out.Error)
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, "Auth", out.Warnings[0].Category)
}
