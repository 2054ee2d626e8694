// Package classify maps an edited file's path to a logical repo identifier.
// Classification is deterministic and does no I/O: it only inspects the path
// relative to the project root.
package classify

import (
	"slices"
	"strings"
)

// Sentinel repo identifiers.
const (
	// RepoRoot identifies a file sitting directly in the project root.
	RepoRoot = "root"
	// RepoUnknown means the path could not be grouped; unknown repos are
	// never tracked.
	RepoUnknown = "unknown"
)

// Top-level directory names that map to themselves.
var (
	frontendRepos = []string{"frontend", "client", "web", "app", "ui"}
	backendRepos  = []string{"backend", "server", "api", "src", "services"}
	databaseRepos = []string{"database", "prisma", "migrations"}
)

// Group markers whose repo identity includes the next path segment,
// e.g. packages/foo.
var groupMarkers = []string{"packages", "examples"}

// Repo classifies filePath relative to projectRoot and returns the repo
// identifier, RepoRoot for a file at the project root, or RepoUnknown.
func Repo(filePath, projectRoot string) string {
	rel := strings.TrimPrefix(filePath, strings.TrimSuffix(projectRoot, "/")+"/")

	segments := strings.Split(rel, "/")
	if len(segments) == 0 || segments[0] == "" {
		return RepoUnknown
	}

	first := segments[0]

	if slices.Contains(frontendRepos, first) ||
		slices.Contains(backendRepos, first) ||
		slices.Contains(databaseRepos, first) {
		return first
	}

	if slices.Contains(groupMarkers, first) {
		if len(segments) >= 2 {
			return first + "/" + segments[1]
		}
		return first
	}

	// A lone segment is a file at the project root.
	if len(segments) == 1 {
		return RepoRoot
	}

	return RepoUnknown
}

// IsDatabaseRepo reports whether a repo identifier denotes a database-oriented
// repo, either by exact name or by a prisma marker in the identifier.
func IsDatabaseRepo(repoID string) bool {
	return repoID == "database" || strings.Contains(repoID, "prisma")
}
