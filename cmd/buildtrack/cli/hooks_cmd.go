package cli

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/buildtrack/cli/cmd/buildtrack/cli/logging"
	"github.com/buildtrack/cli/cmd/buildtrack/cli/paths"

	"github.com/spf13/cobra"
)

// Hook names - these become subcommands under `buildtrack hooks claude-code`.
const (
	HookNamePostToolUse      = "post-tool-use"
	HookNameUserPromptSubmit = "user-prompt-submit"
)

func newHooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "hooks",
		Short:  "Hook handlers",
		Long:   "Commands called by Claude Code hooks. These are internal and not for direct user use.",
		Hidden: true, // Internal command, not for direct user use
	}

	cmd.AddCommand(newClaudeCodeHooksCmd())

	return cmd
}

func newClaudeCodeHooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "claude-code",
		Short:  "Claude Code hook handlers",
		Hidden: true,
	}

	cmd.AddCommand(newPostToolUseCmd())
	cmd.AddCommand(newUserPromptSubmitCmd())

	return cmd
}

// newPostToolUseCmd builds the edit-tracking hook command. Its RunE is the
// outermost boundary of the tracker: whatever happens inside, it returns nil
// so the surrounding agent workflow never observes a failure.
func newPostToolUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   HookNamePostToolUse,
		Short: "Called after a file-mutating tool completes",
		RunE: func(_ *cobra.Command, _ []string) error {
			start := time.Now()
			defer logging.Close()

			if err := runPostToolUse(os.Stdin, paths.ProjectRoot()); err != nil {
				// Swallowed: derived views stay stale until the next
				// qualifying event in this session.
				ctx := logging.WithComponent(context.Background(), "hooks")
				logging.Debug(ctx, "post-tool-use incomplete", slog.String("error", err.Error()))
			}

			logging.LogDuration(logging.WithComponent(context.Background(), "hooks"),
				slog.LevelDebug, "post-tool-use finished", start)
			return nil
		},
	}
}

// newUserPromptSubmitCmd builds the skill matcher hook command. This one does
// surface errors: the banner is advisory and a broken rule file should be
// visible, not silently ignored.
func newUserPromptSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   HookNameUserPromptSubmit,
		Short: "Called when the user submits a prompt",
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer logging.Close()
			return runUserPromptSubmit(os.Stdin, cmd.OutOrStdout(), paths.ProjectRoot())
		},
	}
}
