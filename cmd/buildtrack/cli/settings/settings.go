// Package settings provides configuration loading for buildtrack.
// Settings live next to the cache in the project's .claude directory so they
// travel with the project, not the user.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/buildtrack/cli/cmd/buildtrack/cli/paths"
)

// Settings represents the .claude/buildtrack.json configuration.
type Settings struct {
	// Enabled indicates whether tracking is active. When false, hooks exit
	// silently. Defaults to true.
	Enabled bool `json:"enabled"`

	// LogLevel sets logging verbosity (debug, info, warn, error). Can be
	// overridden by the BUILDTRACK_LOG_LEVEL environment variable.
	// Defaults to "info".
	LogLevel string `json:"log_level,omitempty"`
}

// Load loads settings for a project. A missing file yields defaults; a
// malformed file is an error the caller decides how to treat.
func Load(projectRoot string) (*Settings, error) {
	s := &Settings{Enabled: true}

	data, err := os.ReadFile(filepath.Join(projectRoot, paths.SettingsFile)) //nolint:gosec // fixed path under project root
	if err != nil {
		if os.IsNotExist(err) {
			applyDefaults(s)
			return s, nil
		}
		return nil, fmt.Errorf("reading settings file: %w", err)
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing settings file: %w", err)
	}
	applyDefaults(s)

	return s, nil
}

func applyDefaults(s *Settings) {
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
}
