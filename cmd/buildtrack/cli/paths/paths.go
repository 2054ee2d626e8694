// Package paths defines the on-disk layout of the per-session cache and
// resolves the ambient project root configuration.
package paths

import (
	"os"
	"path/filepath"
)

// ProjectRootEnvVar supplies the absolute project root. When unset, tracking
// is disabled entirely and hooks exit as silent no-ops.
const ProjectRootEnvVar = "CLAUDE_PROJECT_DIR"

// CacheDir is the session cache root, relative to the project root.
const CacheDir = ".claude/tsc-cache"

// LogsDirName is the log directory under the cache root. Session IDs are
// validated to be path-safe (no dots), so this name can never collide with a
// session directory.
const LogsDirName = ".logs"

// Session cache file names.
const (
	EditLogFileName       = "edited-files.log"
	AffectedReposFileName = "affected-repos.txt"
	CommandsFileName      = "commands.txt"
	CommandsBufFileName   = "commands.txt.tmp"
)

// SkillRulesFile is the static rule configuration consumed by the prompt
// matcher hook, relative to the project root.
const SkillRulesFile = ".claude/skills/skill-rules.json"

// SettingsFile is the buildtrack settings file, relative to the project root.
const SettingsFile = ".claude/buildtrack.json"

// ClaudeSettingsFile is Claude Code's own settings file, where enable installs
// the hook entries.
const ClaudeSettingsFile = ".claude/settings.json"

// ProjectRoot returns the configured project root, or "" when tracking is
// disabled because the environment variable is unset.
func ProjectRoot() string {
	return os.Getenv(ProjectRootEnvVar)
}

// CacheRoot returns the session cache root for a project.
func CacheRoot(projectRoot string) string {
	return filepath.Join(projectRoot, CacheDir)
}

// SessionDir returns the cache directory for one session. The caller is
// responsible for validating sessionID first.
func SessionDir(projectRoot, sessionID string) string {
	return filepath.Join(CacheRoot(projectRoot), sessionID)
}

// LogsDir returns the directory holding per-session log files.
func LogsDir(projectRoot string) string {
	return filepath.Join(CacheRoot(projectRoot), LogsDirName)
}
