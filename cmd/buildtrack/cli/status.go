package cli

import (
	"fmt"
	"io"

	"github.com/buildtrack/cli/cmd/buildtrack/cli/paths"
	"github.com/buildtrack/cli/cmd/buildtrack/cli/store"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show tracked sessions and their pending validation commands",
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectRoot := paths.ProjectRoot()
			if projectRoot == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "✕ %s is not set; tracking is disabled\n", paths.ProjectRootEnvVar)
				return NewSilentError(fmt.Errorf("%s is not set", paths.ProjectRootEnvVar))
			}
			return runStatus(cmd.OutOrStdout(), projectRoot, sessionID)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Show details for one session")

	return cmd
}

func runStatus(w io.Writer, projectRoot, sessionID string) error {
	st := store.New(projectRoot)

	if sessionID == "" {
		sessions, err := st.Sessions()
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Fprintln(w, "No tracked sessions.")
			return nil
		}
		fmt.Fprintln(w, "Tracked sessions:")
		for _, s := range sessions {
			fmt.Fprintf(w, "  %s\n", s)
		}
		fmt.Fprintln(w, "\nUse --session <id> for details.")
		return nil
	}

	edits, err := st.Edits(sessionID)
	if err != nil {
		return err
	}
	repos, err := st.AffectedRepos(sessionID)
	if err != nil {
		return err
	}
	commands, err := st.Commands(sessionID)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Session %s\n", sessionID)
	fmt.Fprintf(w, "  Edits: %d\n", len(edits))

	fmt.Fprintln(w, "  Affected repos:")
	if len(repos) == 0 {
		fmt.Fprintln(w, "    (none)")
	}
	for _, repo := range repos {
		fmt.Fprintf(w, "    %s\n", repo)
	}

	fmt.Fprintln(w, "  Commands:")
	if len(commands) == 0 {
		fmt.Fprintln(w, "    (none)")
	}
	for _, c := range commands {
		fmt.Fprintf(w, "    [%s] %s\n", c.Kind, c.Line)
	}

	return nil
}
