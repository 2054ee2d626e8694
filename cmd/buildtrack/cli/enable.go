package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/buildtrack/cli/cmd/buildtrack/cli/paths"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// postToolUseMatcher selects the file-mutating tools in Claude's hook config.
const postToolUseMatcher = "Edit|MultiEdit|Write"

// buildtrackHookPrefixes identify previously installed buildtrack hooks,
// in both binary and local-dev form.
var buildtrackHookPrefixes = []string{
	"buildtrack ",
	"go run ${CLAUDE_PROJECT_DIR}/cmd/buildtrack/main.go ",
}

// claudeHooks is the subset of .claude/settings.json we manage. Unknown
// top-level fields are preserved via raw-message merging.
type claudeHooks struct {
	UserPromptSubmit []claudeHookMatcher `json:"UserPromptSubmit,omitempty"`
	PostToolUse      []claudeHookMatcher `json:"PostToolUse,omitempty"`
}

type claudeHookMatcher struct {
	Matcher string            `json:"matcher"`
	Hooks   []claudeHookEntry `json:"hooks"`
}

type claudeHookEntry struct {
	Type    string `json:"type"`
	Command string `json:"command"`
}

func newEnableCmd() *cobra.Command {
	var localDev bool
	var force bool
	var yes bool

	cmd := &cobra.Command{
		Use:   "enable",
		Short: "Install the Claude Code hooks",
		Long:  "Install the buildtrack hooks into .claude/settings.json of the current project.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes && isInteractive() {
				var confirmed bool
				form := huh.NewForm(huh.NewGroup(
					huh.NewConfirm().
						Title("Install buildtrack hooks into .claude/settings.json?").
						Value(&confirmed),
				))
				if err := form.Run(); err != nil {
					return fmt.Errorf("confirmation prompt failed: %w", err)
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}

			count, err := installHooks(cwd, localDev, force)
			if err != nil {
				return err
			}
			reportInstall(cmd.OutOrStdout(), count)
			return nil
		},
	}

	cmd.Flags().BoolVar(&localDev, "local-dev", false, "Use go run instead of the buildtrack binary for hooks")
	cmd.Flags().MarkHidden("local-dev") //nolint:errcheck,gosec // flag is defined above
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Reinstall hooks (removes existing buildtrack hooks first)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func reportInstall(w io.Writer, count int) {
	if count == 0 {
		fmt.Fprintln(w, "Hooks already installed.")
		return
	}
	fmt.Fprintf(w, "Installed %d hook(s) into %s\n", count, paths.ClaudeSettingsFile)
}

// installHooks merges the buildtrack hook entries into .claude/settings.json,
// preserving any unrelated settings. Returns the number of hooks added.
func installHooks(projectRoot string, localDev, force bool) (int, error) {
	settingsPath := filepath.Join(projectRoot, paths.ClaudeSettingsFile)

	var hooks claudeHooks
	rawSettings := make(map[string]json.RawMessage)

	existingData, readErr := os.ReadFile(settingsPath) //nolint:gosec // fixed path under project root
	if readErr == nil {
		if err := json.Unmarshal(existingData, &rawSettings); err != nil {
			return 0, fmt.Errorf("parsing existing settings.json: %w", err)
		}
		if hooksRaw, ok := rawSettings["hooks"]; ok {
			if err := json.Unmarshal(hooksRaw, &hooks); err != nil {
				return 0, fmt.Errorf("parsing hooks in settings.json: %w", err)
			}
		}
	} else if !os.IsNotExist(readErr) {
		return 0, fmt.Errorf("reading settings.json: %w", readErr)
	}

	if force {
		hooks.PostToolUse = removeBuildtrackHooks(hooks.PostToolUse)
		hooks.UserPromptSubmit = removeBuildtrackHooks(hooks.UserPromptSubmit)
	}

	postToolUseCmd := "buildtrack hooks claude-code " + HookNamePostToolUse
	promptCmd := "buildtrack hooks claude-code " + HookNameUserPromptSubmit
	if localDev {
		postToolUseCmd = "go run ${CLAUDE_PROJECT_DIR}/cmd/buildtrack/main.go hooks claude-code " + HookNamePostToolUse
		promptCmd = "go run ${CLAUDE_PROJECT_DIR}/cmd/buildtrack/main.go hooks claude-code " + HookNameUserPromptSubmit
	}

	count := 0
	if !hookCommandExists(hooks.PostToolUse, postToolUseCmd) {
		hooks.PostToolUse = addHookToMatcher(hooks.PostToolUse, postToolUseMatcher, postToolUseCmd)
		count++
	}
	if !hookCommandExists(hooks.UserPromptSubmit, promptCmd) {
		hooks.UserPromptSubmit = addHookToMatcher(hooks.UserPromptSubmit, "", promptCmd)
		count++
	}

	if count == 0 {
		return 0, nil
	}

	hooksJSON, err := json.Marshal(hooks)
	if err != nil {
		return 0, fmt.Errorf("marshaling hooks: %w", err)
	}
	rawSettings["hooks"] = hooksJSON

	if err := os.MkdirAll(filepath.Dir(settingsPath), 0o750); err != nil {
		return 0, fmt.Errorf("creating .claude directory: %w", err)
	}

	output, err := json.MarshalIndent(rawSettings, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshaling settings: %w", err)
	}
	output = append(output, '\n')

	if err := os.WriteFile(settingsPath, output, 0o600); err != nil {
		return 0, fmt.Errorf("writing settings.json: %w", err)
	}

	return count, nil
}

func hookCommandExists(matchers []claudeHookMatcher, command string) bool {
	for _, matcher := range matchers {
		for _, hook := range matcher.Hooks {
			if hook.Command == command {
				return true
			}
		}
	}
	return false
}

// addHookToMatcher appends a command hook to the matcher with the given
// pattern, creating the matcher if necessary.
func addHookToMatcher(matchers []claudeHookMatcher, matcherName, command string) []claudeHookMatcher {
	entry := claudeHookEntry{Type: "command", Command: command}

	for i, matcher := range matchers {
		if matcher.Matcher == matcherName {
			matchers[i].Hooks = append(matchers[i].Hooks, entry)
			return matchers
		}
	}

	return append(matchers, claudeHookMatcher{
		Matcher: matcherName,
		Hooks:   []claudeHookEntry{entry},
	})
}

func isBuildtrackHook(command string) bool {
	for _, prefix := range buildtrackHookPrefixes {
		if strings.HasPrefix(command, prefix) {
			return true
		}
	}
	return false
}

// removeBuildtrackHooks strips previously installed buildtrack hooks from a
// matcher list, dropping matchers left empty.
func removeBuildtrackHooks(matchers []claudeHookMatcher) []claudeHookMatcher {
	result := make([]claudeHookMatcher, 0, len(matchers))
	for _, matcher := range matchers {
		var kept []claudeHookEntry
		for _, hook := range matcher.Hooks {
			if !isBuildtrackHook(hook.Command) {
				kept = append(kept, hook)
			}
		}
		if len(kept) > 0 {
			matcher.Hooks = kept
			result = append(result, matcher)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
