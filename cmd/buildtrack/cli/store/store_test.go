package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/buildtrack/cli/cmd/buildtrack/cli/paths"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSession = "session-1"

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	st := New(root)
	require.NoError(t, st.Ensure(testSession))
	return st, filepath.Join(paths.CacheRoot(root), testSession)
}

func TestEnsure_Idempotent(t *testing.T) {
	root := t.TempDir()
	st := New(root)

	require.NoError(t, st.Ensure(testSession))
	require.NoError(t, st.Ensure(testSession))

	info, err := os.Stat(filepath.Join(paths.CacheRoot(root), testSession))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsure_RejectsUnsafeSessionID(t *testing.T) {
	st := New(t.TempDir())
	assert.Error(t, st.Ensure("../escape"))
	assert.Error(t, st.Ensure(""))
}

func TestRecordEdit_AppendsLines(t *testing.T) {
	st, dir := newTestStore(t)

	require.NoError(t, st.RecordEdit(testSession, 1700000000, "/p/backend/app.ts", "backend"))
	require.NoError(t, st.RecordEdit(testSession, 1700000001, "/p/frontend/x.tsx", "frontend"))

	data, err := os.ReadFile(filepath.Join(dir, paths.EditLogFileName))
	require.NoError(t, err)
	assert.Equal(t,
		"1700000000:/p/backend/app.ts:backend\n1700000001:/p/frontend/x.tsx:frontend\n",
		string(data))
}

func TestEdits_ParsesLog(t *testing.T) {
	st, _ := newTestStore(t)

	require.NoError(t, st.RecordEdit(testSession, 1700000000, "/p/backend/app.ts", "backend"))

	edits, err := st.Edits(testSession)
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, int64(1700000000), edits[0].Timestamp)
	assert.Equal(t, "/p/backend/app.ts", edits[0].FilePath)
	assert.Equal(t, "backend", edits[0].Repo)
}

func TestEdits_SkipsGarbageLines(t *testing.T) {
	st, dir := newTestStore(t)

	content := "1700000000:/p/a.ts:backend\nnot a record\nalso:bad\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, paths.EditLogFileName), []byte(content), 0o600))

	edits, err := st.Edits(testSession)
	require.NoError(t, err)
	assert.Len(t, edits, 1)
}

func TestEdits_EmptyWhenAbsent(t *testing.T) {
	st, _ := newTestStore(t)

	edits, err := st.Edits(testSession)
	require.NoError(t, err)
	assert.Empty(t, edits)
}

func TestMarkAffected_SkipsExisting(t *testing.T) {
	st, dir := newTestStore(t)

	require.NoError(t, st.MarkAffected(testSession, "backend"))
	require.NoError(t, st.MarkAffected(testSession, "backend"))
	require.NoError(t, st.MarkAffected(testSession, "frontend"))

	data, err := os.ReadFile(filepath.Join(dir, paths.AffectedReposFileName))
	require.NoError(t, err)
	assert.Equal(t, "backend\nfrontend\n", string(data))
}

func TestAffectedRepos_DeduplicatesOnRead(t *testing.T) {
	st, dir := newTestStore(t)

	// Simulate the interleaving of two concurrent invocations: both read an
	// empty file, both append.
	content := "backend\nbackend\nfrontend\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, paths.AffectedReposFileName), []byte(content), 0o600))

	repos, err := st.AffectedRepos(testSession)
	require.NoError(t, err)
	assert.Equal(t, []string{"backend", "frontend"}, repos)
}

func TestMarkAffected_Concurrent(t *testing.T) {
	st, _ := newTestStore(t)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = st.MarkAffected(testSession, "backend")
		}()
	}
	wg.Wait()

	// Duplicate lines on disk are acceptable; the logical membership after
	// deduplication must be exactly one.
	repos, err := st.AffectedRepos(testSession)
	require.NoError(t, err)
	assert.Equal(t, []string{"backend"}, repos)
}

func TestRecordCommands_ConcurrentCompactionNeverExposesPartialFile(t *testing.T) {
	st, dir := newTestStore(t)
	canonical := filepath.Join(dir, paths.CommandsFileName)

	// A reader polls the canonical file while compactions race. Whatever
	// snapshot it catches must be a complete file: only ever absent, or
	// non-empty and newline-terminated.
	done := make(chan struct{})
	readerDone := make(chan struct{})
	var partials int
	go func() {
		defer close(readerDone)
		for {
			select {
			case <-done:
				return
			default:
			}
			data, err := os.ReadFile(canonical)
			if err != nil {
				continue
			}
			if len(data) == 0 || !strings.HasSuffix(string(data), "\n") {
				partials++
			}
		}
	}()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 50 {
				line := fmt.Sprintf("cd /p/backend && pnpm build --run %d-%d", i, j)
				_ = st.RecordCommands(testSession, []Command{
					{Repo: "backend", Kind: "build", Line: line},
				})
			}
		}()
	}
	wg.Wait()
	close(done)
	<-readerDone

	assert.Zero(t, partials, "reader observed an incomplete canonical file")

	// No writer temp files may survive the races.
	leftovers, err := filepath.Glob(canonical + ".new-*")
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestRecordCommands_WritesSortedCanonicalFile(t *testing.T) {
	st, dir := newTestStore(t)

	require.NoError(t, st.RecordCommands(testSession, []Command{
		{Repo: "frontend", Kind: "tsc", Line: "cd /p/frontend && npx tsc --noEmit"},
		{Repo: "backend", Kind: "build", Line: "cd /p/backend && pnpm build"},
	}))

	data, err := os.ReadFile(filepath.Join(dir, paths.CommandsFileName))
	require.NoError(t, err)
	assert.Equal(t,
		"backend:build:cd /p/backend && pnpm build\nfrontend:tsc:cd /p/frontend && npx tsc --noEmit\n",
		string(data))

	// The transient buffer is removed after a successful rewrite.
	_, err = os.Stat(filepath.Join(dir, paths.CommandsBufFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestRecordCommands_IdempotentForIdenticalCommand(t *testing.T) {
	st, dir := newTestStore(t)

	cmd := []Command{{Repo: "backend", Kind: "build", Line: "cd /p/backend && pnpm build"}}
	require.NoError(t, st.RecordCommands(testSession, cmd))
	require.NoError(t, st.RecordCommands(testSession, cmd))

	data, err := os.ReadFile(filepath.Join(dir, paths.CommandsFileName))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "pnpm build"))
}

func TestRecordCommands_MergesWithExistingCanonical(t *testing.T) {
	st, _ := newTestStore(t)

	require.NoError(t, st.RecordCommands(testSession, []Command{
		{Repo: "backend", Kind: "build", Line: "cd /p/backend && pnpm build"},
	}))
	require.NoError(t, st.RecordCommands(testSession, []Command{
		{Repo: "frontend", Kind: "tsc", Line: "cd /p/frontend && npx tsc --noEmit"},
	}))

	commands, err := st.Commands(testSession)
	require.NoError(t, err)
	require.Len(t, commands, 2)
	assert.Equal(t, Command{Repo: "backend", Kind: "build", Line: "cd /p/backend && pnpm build"}, commands[0])
	assert.Equal(t, Command{Repo: "frontend", Kind: "tsc", Line: "cd /p/frontend && npx tsc --noEmit"}, commands[1])
}

func TestRecordCommands_EmptyLinesAreSkipped(t *testing.T) {
	st, dir := newTestStore(t)

	require.NoError(t, st.RecordCommands(testSession, []Command{
		{Repo: "backend", Kind: "build", Line: ""},
		{Repo: "backend", Kind: "tsc", Line: ""},
	}))

	// Nothing to record means no canonical file is created.
	_, err := os.Stat(filepath.Join(dir, paths.CommandsFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestCommands_ParsesCommandLinesWithColons(t *testing.T) {
	st, _ := newTestStore(t)

	line := "cd /p/backend && npm run build -- --env=ci:stage"
	require.NoError(t, st.RecordCommands(testSession, []Command{
		{Repo: "backend", Kind: "build", Line: line},
	}))

	commands, err := st.Commands(testSession)
	require.NoError(t, err)
	require.Len(t, commands, 1)
	assert.Equal(t, line, commands[0].Line)
}

func TestSessions_ListsOnlySessionDirs(t *testing.T) {
	root := t.TempDir()
	st := New(root)

	require.NoError(t, st.Ensure("session-a"))
	require.NoError(t, st.Ensure("session-b"))
	require.NoError(t, os.MkdirAll(filepath.Join(paths.CacheRoot(root), paths.LogsDirName), 0o750))

	sessions, err := st.Sessions()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"session-a", "session-b"}, sessions)
}

func TestSessions_EmptyCacheRoot(t *testing.T) {
	st := New(t.TempDir())

	sessions, err := st.Sessions()
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
