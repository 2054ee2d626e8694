// hooks_handlers.go contains the hook handler implementations called by the
// commands in hooks_cmd.go.
//
// Every operation below reports failure explicitly; only the RunE boundary in
// hooks_cmd.go decides which hooks swallow errors and which surface them.
package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"github.com/buildtrack/cli/cmd/buildtrack/cli/classify"
	"github.com/buildtrack/cli/cmd/buildtrack/cli/logging"
	"github.com/buildtrack/cli/cmd/buildtrack/cli/paths"
	"github.com/buildtrack/cli/cmd/buildtrack/cli/resolve"
	"github.com/buildtrack/cli/cmd/buildtrack/cli/settings"
	"github.com/buildtrack/cli/cmd/buildtrack/cli/skills"
	"github.com/buildtrack/cli/cmd/buildtrack/cli/store"
	"github.com/buildtrack/cli/redact"
)

// mutatingTools are the tool names whose invocations count as edits.
var mutatingTools = []string{"Edit", "MultiEdit", "Write"}

// docSuffixRegex excludes documentation files from tracking.
var docSuffixRegex = regexp.MustCompile(`\.(md|markdown)$`)

// runPostToolUse is the edit-tracking pipeline. A nil return with no side
// effects means an event was filtered out; an error means one or more
// pipeline steps failed after the filters passed.
//
// Steps after the filters are independently best-effort: a failed step is
// recorded but does not stop the later ones, so derived views lag at worst
// until the next qualifying event.
func runPostToolUse(r io.Reader, projectRoot string) error {
	input, err := parsePostToolUseInput(r)
	if err != nil {
		return err
	}

	if !slices.Contains(mutatingTools, input.ToolName) {
		return nil
	}
	filePath := input.ToolInput.FilePath
	if filePath == "" {
		return nil
	}
	if docSuffixRegex.MatchString(filePath) {
		return nil
	}
	if projectRoot == "" {
		return nil
	}

	repoID := classify.Repo(filePath, projectRoot)
	if repoID == classify.RepoUnknown {
		return nil
	}

	if !trackingEnabled(projectRoot) {
		return nil
	}

	initHookLogging(projectRoot, input.SessionID)
	ctx := logging.WithRepo(logging.WithTool(logging.WithComponent(context.Background(), "hooks"), input.ToolName), repoID)
	logging.Debug(ctx, "post-tool-use", slog.String("file_path", filePath))

	st := store.New(projectRoot)
	var errs []error

	if err := st.Ensure(input.SessionID); err != nil {
		logging.Warn(ctx, "ensuring session cache failed", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if err := st.RecordEdit(input.SessionID, time.Now().Unix(), filePath, repoID); err != nil {
		logging.Warn(ctx, "recording edit failed", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if err := st.MarkAffected(input.SessionID, repoID); err != nil {
		logging.Warn(ctx, "marking repo affected failed", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	commands := resolve.Repo(repoID, projectRoot)
	if err := st.RecordCommands(input.SessionID, []store.Command{
		{Repo: repoID, Kind: resolve.KindBuild, Line: commands.Build},
		{Repo: repoID, Kind: resolve.KindTypecheck, Line: commands.Typecheck},
	}); err != nil {
		logging.Warn(ctx, "recording commands failed", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	logging.Info(ctx, "edit tracked",
		slog.Bool("has_build", commands.Build != ""),
		slog.Bool("has_typecheck", commands.Typecheck != ""),
	)

	return errors.Join(errs...)
}

// runUserPromptSubmit matches the prompt against the skill rule file and
// writes the activation banner to w. Unlike the tracker, this hook surfaces
// its failures to the caller.
func runUserPromptSubmit(r io.Reader, w io.Writer, projectRoot string) error {
	input, err := parseUserPromptInput(r)
	if err != nil {
		return err
	}

	root := projectRoot
	if root == "" {
		// Match the historical fallback instead of failing outright.
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return homeErr
		}
		root = filepath.Join(home, "project")
	}

	rules, err := skills.LoadRules(filepath.Join(root, paths.SkillRulesFile))
	if errors.Is(err, os.ErrNotExist) {
		// Projects without a rule file get no banner, not an error.
		return nil
	}
	if err != nil {
		return err
	}

	matched := skills.Match(rules, input.Prompt)

	initHookLogging(root, input.SessionID)
	ctx := logging.WithComponent(context.Background(), "skills")
	logging.Info(ctx, "user-prompt-submit",
		slog.Int("matched", len(matched)),
		slog.String("prompt_excerpt", redact.String(truncate(input.Prompt, 200))),
	)

	if banner := skills.Banner(matched); banner != "" {
		if _, err := io.WriteString(w, banner); err != nil {
			return err
		}
	}
	return nil
}

// trackingEnabled reports whether hooks should run. An unreadable settings
// file does not disable tracking.
func trackingEnabled(projectRoot string) bool {
	s, err := settings.Load(projectRoot)
	if err != nil {
		return true
	}
	return s.Enabled
}

// initHookLogging initializes per-session logging, wiring the level getter to
// settings. Failures fall back to stderr inside the logging package.
func initHookLogging(projectRoot, sessionID string) {
	logging.SetLogLevelGetter(func() string {
		s, err := settings.Load(projectRoot)
		if err != nil {
			return ""
		}
		return s.LogLevel
	})
	_ = logging.Init(projectRoot, sessionID)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
