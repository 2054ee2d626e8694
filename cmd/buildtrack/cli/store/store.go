// Package store persists per-session edit tracking state on the filesystem.
//
// Each hook invocation is an independent short-lived process; concurrent
// invocations for the same session coordinate only through the filesystem.
// The edit log is the append-only source of truth. The affected-repo file is
// a multiset on disk: concurrent read-then-append updates may duplicate or
// (rarely) drop entries, so every reader deduplicates instead of assuming set
// semantics. The canonical commands file is the only compacted view and is
// always replaced via an atomic rename, so no reader ever observes a partial
// write. Single-record appends use O_APPEND and are atomic at line
// granularity.
//
// All operations return errors to the caller; collapsing failures into a
// silent success is the dispatcher's job, not the store's.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/buildtrack/cli/cmd/buildtrack/cli/paths"
	"github.com/buildtrack/cli/cmd/buildtrack/cli/validation"
)

// Command is one derived validation command for a repo.
type Command struct {
	Repo string
	Kind string // "build" or "tsc"
	Line string // full command line, e.g. "cd /root/backend && pnpm build"
}

// EditRecord is one line of the append-only edit log.
type EditRecord struct {
	Timestamp int64
	FilePath  string
	Repo      string
}

// Store owns the session cache directory tree for one project.
type Store struct {
	root string // cache root, e.g. <project>/.claude/tsc-cache
}

// New returns a Store rooted at the project's cache directory.
func New(projectRoot string) *Store {
	return &Store{root: paths.CacheRoot(projectRoot)}
}

// sessionDir returns the directory for a session after validating the ID.
func (s *Store) sessionDir(sessionID string) (string, error) {
	if err := validation.ValidateSessionID(sessionID); err != nil {
		return "", err
	}
	return filepath.Join(s.root, sessionID), nil
}

// Ensure idempotently creates the session's cache directory.
func (s *Store) Ensure(sessionID string) error {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating session cache: %w", err)
	}
	return nil
}

// RecordEdit appends one immutable line to the session's edit log. The write
// is a single O_APPEND line, atomic with respect to concurrent invocations.
func (s *Store) RecordEdit(sessionID string, timestamp int64, filePath, repoID string) error {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return err
	}
	line := fmt.Sprintf("%d:%s:%s\n", timestamp, filePath, repoID)
	return appendLine(filepath.Join(dir, paths.EditLogFileName), line)
}

// MarkAffected records the repo in the session's affected-repo file if a read
// of the current file does not already show it. The read-then-append is not
// atomic across concurrent invocations: duplicates (and rarely drops) are
// accepted, and readers deduplicate.
func (s *Store) MarkAffected(sessionID, repoID string) error {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return err
	}
	file := filepath.Join(dir, paths.AffectedReposFileName)

	existing, err := readLines(file)
	if err != nil {
		return err
	}
	if slices.Contains(existing, repoID) {
		return nil
	}
	return appendLine(file, repoID+"\n")
}

// RecordCommands appends the derived commands to the transient buffer, then
// compacts: the union of buffer and canonical file is deduplicated, sorted
// lexicographically, and atomically swapped in as the new canonical file.
// The buffer is removed after a successful swap. This is the only compaction
// step; all other session state is purely additive.
func (s *Store) RecordCommands(sessionID string, commands []Command) error {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return err
	}

	bufFile := filepath.Join(dir, paths.CommandsBufFileName)
	for _, c := range commands {
		if c.Line == "" {
			continue
		}
		if err := appendLine(bufFile, c.Repo+":"+c.Kind+":"+c.Line+"\n"); err != nil {
			return err
		}
	}

	buffered, err := readLines(bufFile)
	if err != nil {
		return err
	}
	if len(buffered) == 0 {
		return nil
	}

	canonicalFile := filepath.Join(dir, paths.CommandsFileName)
	canonical, err := readLines(canonicalFile)
	if err != nil {
		return err
	}

	merged := dedupe(append(canonical, buffered...))
	slices.Sort(merged)

	if err := writeFileAtomic(canonicalFile, strings.Join(merged, "\n")+"\n"); err != nil {
		return err
	}

	if err := os.Remove(bufFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing command buffer: %w", err)
	}
	return nil
}

// Edits returns the parsed edit log for a session. Lines that do not parse
// are skipped rather than failing the whole read.
func (s *Store) Edits(sessionID string) ([]EditRecord, error) {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return nil, err
	}

	lines, err := readLines(filepath.Join(dir, paths.EditLogFileName))
	if err != nil {
		return nil, err
	}

	records := make([]EditRecord, 0, len(lines))
	for _, line := range lines {
		if rec, ok := parseEditLine(line); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// AffectedRepos returns the logical affected-repo set for a session,
// deduplicated in first-seen order. The on-disk file may contain duplicates.
func (s *Store) AffectedRepos(sessionID string) ([]string, error) {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return nil, err
	}

	lines, err := readLines(filepath.Join(dir, paths.AffectedReposFileName))
	if err != nil {
		return nil, err
	}
	return dedupe(lines), nil
}

// Commands returns the canonical command list for a session.
func (s *Store) Commands(sessionID string) ([]Command, error) {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return nil, err
	}

	lines, err := readLines(filepath.Join(dir, paths.CommandsFileName))
	if err != nil {
		return nil, err
	}

	commands := make([]Command, 0, len(lines))
	for _, line := range lines {
		parts := strings.SplitN(line, ":", 3)
		if len(parts) != 3 {
			continue
		}
		commands = append(commands, Command{Repo: parts[0], Kind: parts[1], Line: parts[2]})
	}
	return commands, nil
}

// Sessions lists the session IDs present in the cache root.
func (s *Store) Sessions() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache root: %w", err)
	}

	var sessions []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		// Skip non-session directories like the log dir.
		if validation.ValidateSessionID(e.Name()) != nil {
			continue
		}
		sessions = append(sessions, e.Name())
	}
	return sessions, nil
}

// parseEditLine parses "<unixTimestamp>:<filePath>:<repoId>". File paths may
// themselves contain colons, so the repo is taken from the last colon.
func parseEditLine(line string) (EditRecord, bool) {
	first := strings.Index(line, ":")
	last := strings.LastIndex(line, ":")
	if first < 0 || last <= first {
		return EditRecord{}, false
	}

	ts, err := strconv.ParseInt(line[:first], 10, 64)
	if err != nil {
		return EditRecord{}, false
	}

	return EditRecord{
		Timestamp: ts,
		FilePath:  line[first+1 : last],
		Repo:      line[last+1:],
	}, true
}

// appendLine appends a single line with O_APPEND, which the kernel guarantees
// to be a single atomic write at this size.
func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) //nolint:gosec // path is session-dir relative
	if err != nil {
		return fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close() //nolint:errcheck // best-effort close after write error check below

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("appending to %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// readLines returns the non-empty lines of a file, or nil if it is absent.
func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is session-dir relative
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// writeFileAtomic writes content to a uniquely named temporary file in the
// same directory, then renames it over the target so concurrent readers never
// see a partial file. The temp name must be unique per writer: a shared name
// would let one compaction truncate another's temp between its write and
// rename.
func writeFileAtomic(path, content string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".new-*")
	if err != nil {
		return fmt.Errorf("creating temp for %s: %w", filepath.Base(path), err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// dedupe removes duplicate lines preserving first-seen order.
func dedupe(lines []string) []string {
	seen := make(map[string]bool, len(lines))
	var out []string
	for _, line := range lines {
		if seen[line] {
			continue
		}
		seen[line] = true
		out = append(out, line)
	}
	return out
}
