// Package config handles configuration loading and validation for revdeck.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Built-in action names for keybindings.
const (
	ActionPrevFile      = "prev-file"
	ActionNextFile      = "next-file"
	ActionPrevChunk     = "prev-chunk"
	ActionNextChunk     = "next-chunk"
	ActionPrevComment   = "prev-comment"
	ActionNextComment   = "next-comment"
	ActionRecenter      = "recenter"
	ActionCreateComment = "create-comment"
	ActionExpandChunk   = "expand-chunk"
	ActionCollapseChunk = "collapse-chunk"
)

// defaultKeybindings provides built-in keybindings that users can override.
// Several actions carry multi-key aliases; all of them are plain printable
// keys since modifier chords are reserved for the terminal.
var defaultKeybindings = map[string]Keybinding{
	"a": {Action: ActionPrevFile, Help: "previous file"},
	"K": {Action: ActionPrevFile},
	"<": {Action: ActionPrevFile},
	"b": {Action: ActionNextFile, Help: "next file"},
	"J": {Action: ActionNextFile},
	">": {Action: ActionNextFile},
	"s": {Action: ActionPrevChunk, Help: "previous change"},
	"k": {Action: ActionPrevChunk},
	",": {Action: ActionPrevChunk},
	"d": {Action: ActionNextChunk, Help: "next change"},
	"j": {Action: ActionNextChunk},
	".": {Action: ActionNextChunk},
	"[": {Action: ActionPrevComment, Help: "previous comment"},
	"]": {Action: ActionNextComment, Help: "next comment"},
	"r": {Action: ActionRecenter, Help: "recenter on selection"},
	"c": {Action: ActionCreateComment, Help: "comment on selection"},
	"+": {Action: ActionExpandChunk, Help: "expand hidden lines"},
	"-": {Action: ActionCollapseChunk, Help: "collapse expanded lines"},
}

// Config holds the application configuration.
type Config struct {
	Server            string                `yaml:"server"`
	APIToken          string                `yaml:"api_token"`
	APITokenFile      string                `yaml:"api_token_file"`
	Theme             string                `yaml:"theme"`
	ContextLines      int                   `yaml:"context_lines"`
	CollapseThreshold int                   `yaml:"collapse_threshold"`
	Filenames         []string              `yaml:"filenames"`
	Keybindings       map[string]Keybinding `yaml:"keybindings"`
	DataDir           string                `yaml:"-"` // set by caller, not from config file
}

// Keybinding maps a key press to a navigation or comment action.
type Keybinding struct {
	Action string `yaml:"action"`
	Help   string `yaml:"help"` // help text shown in TUI
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Theme:             "dark",
		ContextLines:      20,
		CollapseThreshold: 25,
		Keybindings:       map[string]Keybinding{},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the
// provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	// Merge user keybindings into defaults (user config overrides defaults)
	cfg.Keybindings = mergeKeybindings(defaultKeybindings, cfg.Keybindings)

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Token resolves the API token, preferring the inline value over the token
// file.
func (c *Config) Token() (string, error) {
	if c.APIToken != "" {
		return c.APIToken, nil
	}
	if c.APITokenFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.APITokenFile)
	if err != nil {
		return "", fmt.Errorf("read api_token_file: %w", err)
	}
	return trimNewline(string(data)), nil
}

// Binding returns the action bound to a key, if any.
func (c *Config) Binding(key string) (Keybinding, bool) {
	kb, ok := c.Keybindings[key]
	return kb, ok
}

// KeysFor returns every key bound to the given action, for help text.
func (c *Config) KeysFor(action string) []string {
	var keys []string
	for key, kb := range c.Keybindings {
		if kb.Action == action {
			keys = append(keys, key)
		}
	}
	return keys
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Theme == "" {
		c.Theme = defaults.Theme
	}
	if c.ContextLines == 0 {
		c.ContextLines = defaults.ContextLines
	}
	if c.CollapseThreshold == 0 {
		c.CollapseThreshold = defaults.CollapseThreshold
	}
}

// mergeKeybindings merges user keybindings into defaults.
// User keybindings override defaults for the same key.
func mergeKeybindings(defaults, user map[string]Keybinding) map[string]Keybinding {
	result := make(map[string]Keybinding, len(defaults)+len(user))

	for k, v := range defaults {
		result[k] = v
	}
	for k, v := range user {
		result[k] = v
	}

	return result
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
