package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.Theme != "dark" && c.Theme != "light" {
		return fmt.Errorf("theme must be dark or light, got %q", c.Theme)
	}

	if c.ContextLines < 1 {
		return fmt.Errorf("context_lines must be at least 1")
	}

	if c.CollapseThreshold < 3 {
		return fmt.Errorf("collapse_threshold must be at least 3")
	}

	for key, kb := range c.Keybindings {
		if kb.Action == "" {
			return fmt.Errorf("keybinding %q must have an action", key)
		}
		if !isValidAction(kb.Action) {
			return fmt.Errorf("keybinding %q has invalid action %q", key, kb.Action)
		}
		// Modifier chords collide with terminal and OS shortcuts.
		if strings.ContainsRune(key, '+') && key != "+" {
			return fmt.Errorf("keybinding %q: modifier chords are not supported", key)
		}
	}

	return nil
}

// ValidateDeep performs comprehensive validation including server URL,
// token file accessibility, and filename glob syntax. The configPath
// argument specifies the config file location to validate (empty string
// skips the config file check). This calls Validate() first for basic
// structural validation, then adds I/O checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("server", c.Server, isServerURL),
		criterio.Run("api_token_file", c.APITokenFile, isReadableFileOrEmpty),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
		c.validateFilenamePatterns(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.APIToken == "" && c.APITokenFile == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Auth",
			Message:  "no api_token or api_token_file configured, only public review requests will load",
		})
	}

	if c.APIToken != "" && c.APITokenFile != "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Auth",
			Item:     "api_token_file",
			Message:  "ignored because api_token is also set",
		})
	}

	return warnings
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isServerURL validates that the server is an absolute http(s) URL.
func isServerURL(server string) error {
	if server == "" {
		return fmt.Errorf("server is required")
	}
	u, err := url.Parse(server)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server must be an http or https URL, got %q", server)
	}
	if u.Host == "" {
		return fmt.Errorf("server URL has no host")
	}
	return nil
}

// isReadableFileOrEmpty validates that a path, if set, is a readable file.
func isReadableFileOrEmpty(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("is a directory, not a file")
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

// validateFilenamePatterns checks the default filename filter globs.
func (c *Config) validateFilenamePatterns() error {
	var errs criterio.FieldErrorsBuilder
	for i, pat := range c.Filenames {
		if !doublestar.ValidatePattern(pat) {
			errs = errs.Append(fmt.Sprintf("filenames[%d]", i), fmt.Errorf("invalid glob pattern %q", pat))
		}
	}
	return errs.ToError()
}

func isValidAction(action string) bool {
	switch action {
	case ActionPrevFile, ActionNextFile,
		ActionPrevChunk, ActionNextChunk,
		ActionPrevComment, ActionNextComment,
		ActionRecenter, ActionCreateComment,
		ActionExpandChunk, ActionCollapseChunk:
		return true
	default:
		return false
	}
}
