// Package resolve derives validation commands for a repo by inspecting its
// manifest, lockfile, and typecheck configuration on disk.
//
// Both resolutions are independent and degrade silently: a missing, unreadable,
// or malformed file simply means "no command". Commands are derived from the
// manifest state at detection time; staleness relative to later manifest edits
// in the same session is accepted.
package resolve

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/buildtrack/cli/cmd/buildtrack/cli/classify"
)

// Command kinds as persisted in the canonical commands file.
const (
	KindBuild     = "build"
	KindTypecheck = "tsc"
)

// Commands holds the resolved command lines for a repo. An empty string means
// no command of that kind applies.
type Commands struct {
	Build     string
	Typecheck string
}

// lockfilePrefixes is the lockfile probe order. The first lockfile found picks
// the invocation; no lockfile falls back to npm.
var lockfilePrefixes = []struct {
	lockfile   string
	invocation string
}{
	{"pnpm-lock.yaml", "pnpm build"},
	{"package-lock.json", "npm run build"},
	{"yarn.lock", "yarn build"},
}

const fallbackBuildInvocation = "npm run build"

// packageManifest is the subset of package.json we care about.
type packageManifest struct {
	Scripts map[string]string `json:"scripts"`
}

// Repo resolves the build and typecheck commands for a repo.
func Repo(repoID, projectRoot string) Commands {
	repoPath := filepath.Join(projectRoot, repoID)
	return Commands{
		Build:     buildCommand(repoID, repoPath),
		Typecheck: typecheckCommand(repoPath),
	}
}

// buildCommand resolves the build command for a repo directory.
//
// A package.json declaring a build script wins; the invocation prefix comes
// from the lockfile probe. Database repos with a prisma schema get a schema
// generation command when no build script produced one.
func buildCommand(repoID, repoPath string) string {
	if hasBuildScript(repoPath) {
		invocation := fallbackBuildInvocation
		for _, lp := range lockfilePrefixes {
			if fileExists(filepath.Join(repoPath, lp.lockfile)) {
				invocation = lp.invocation
				break
			}
		}
		return "cd " + repoPath + " && " + invocation
	}

	if classify.IsDatabaseRepo(repoID) && hasPrismaSchema(repoPath) {
		return "cd " + repoPath + " && npx prisma generate"
	}

	return ""
}

// typecheckCommand resolves the tsc command for a repo directory. A more
// specific app-scoped tsconfig takes precedence over the generic one.
func typecheckCommand(repoPath string) string {
	if !fileExists(filepath.Join(repoPath, "tsconfig.json")) {
		return ""
	}
	if fileExists(filepath.Join(repoPath, "tsconfig.app.json")) {
		return "cd " + repoPath + " && npx tsc --project tsconfig.app.json --noEmit"
	}
	return "cd " + repoPath + " && npx tsc --noEmit"
}

// hasBuildScript reports whether package.json exists and declares a build
// script. Unreadable or malformed manifests count as "no".
func hasBuildScript(repoPath string) bool {
	data, err := os.ReadFile(filepath.Join(repoPath, "package.json")) //nolint:gosec // path is repo-relative by construction
	if err != nil {
		return false
	}

	var manifest packageManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return false
	}

	_, ok := manifest.Scripts["build"]
	return ok
}

// hasPrismaSchema probes the two conventional schema locations.
func hasPrismaSchema(repoPath string) bool {
	return fileExists(filepath.Join(repoPath, "schema.prisma")) ||
		fileExists(filepath.Join(repoPath, "prisma", "schema.prisma"))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
