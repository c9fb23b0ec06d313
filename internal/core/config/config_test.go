package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "dark", cfg.Theme)
	assert.Equal(t, 20, cfg.ContextLines)
	assert.Equal(t, 25, cfg.CollapseThreshold)

	// Default navigation bindings are present.
	kb, ok := cfg.Binding("a")
	require.True(t, ok)
	assert.Equal(t, ActionPrevFile, kb.Action)

	kb, ok = cfg.Binding("]")
	require.True(t, ok)
	assert.Equal(t, ActionNextComment, kb.Action)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "dark", cfg.Theme)
}

func TestLoad_FileOverrides(t *testing.T) {
	path := writeConfig(t, `
server: https://reviews.example.com
theme: light
context_lines: 10
filenames:
  - "*.go"
keybindings:
  a:
    action: next-file
  g:
    action: recenter
`)

	cfg, err := Load(path, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "https://reviews.example.com", cfg.Server)
	assert.Equal(t, "light", cfg.Theme)
	assert.Equal(t, 10, cfg.ContextLines)
	assert.Equal(t, []string{"*.go"}, cfg.Filenames)

	// User override wins over default binding for the same key.
	kb, ok := cfg.Binding("a")
	require.True(t, ok)
	assert.Equal(t, ActionNextFile, kb.Action)

	// New user bindings are added; untouched defaults survive.
	kb, ok = cfg.Binding("g")
	require.True(t, ok)
	assert.Equal(t, ActionRecenter, kb.Action)

	kb, ok = cfg.Binding("b")
	require.True(t, ok)
	assert.Equal(t, ActionNextFile, kb.Action)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "theme: [unclosed")
	_, err := Load(path, t.TempDir())
	require.Error(t, err)
}

func TestLoad_InvalidAction(t *testing.T) {
	path := writeConfig(t, `
keybindings:
  z:
    action: frobnicate
`)
	_, err := Load(path, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid action")
}

func TestValidate_ModifierChordsRejected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Keybindings = map[string]Keybinding{
		"ctrl+n": {Action: ActionNextFile},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modifier chords")

	// The bare plus key itself is bindable.
	cfg.Keybindings = map[string]Keybinding{
		"+": {Action: ActionExpandChunk},
	}
	require.NoError(t, cfg.Validate())
}

func TestValidate_Bounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()

	cfg.ContextLines = 0
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.CollapseThreshold = 2
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Theme = "solarized"
	require.Error(t, cfg.Validate())
}

func TestToken(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIToken = "inline"

	tok, err := cfg.Token()
	require.NoError(t, err)
	assert.Equal(t, "inline", tok)

	tokenFile := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("from-file\n"), 0o600))

	cfg = DefaultConfig()
	cfg.APITokenFile = tokenFile
	tok, err = cfg.Token()
	require.NoError(t, err)
	assert.Equal(t, "from-file", tok, "trailing newline stripped")

	cfg = DefaultConfig()
	tok, err = cfg.Token()
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestKeysFor(t *testing.T) {
	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)

	keys := cfg.KeysFor(ActionPrevFile)
	assert.ElementsMatch(t, []string{"a", "K", "<"}, keys)
}
