// Package validation provides input validation for identifiers that end up in
// file paths. It has no dependencies to avoid import cycles.
package validation

import (
	"errors"
	"fmt"
	"regexp"
)

// pathSafeRegex matches alphanumeric characters, underscores, and hyphens only.
// Session IDs are used as cache directory names, so anything else is rejected.
var pathSafeRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateSessionID validates that a session ID is safe to use as a directory
// name. This prevents path traversal when the ID is joined into the cache path.
func ValidateSessionID(id string) error {
	if id == "" {
		return errors.New("session ID cannot be empty")
	}
	if !pathSafeRegex.MatchString(id) {
		return fmt.Errorf("invalid session ID %q: must be alphanumeric with underscores/hyphens only", id)
	}
	return nil
}
