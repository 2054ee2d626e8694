package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

const gettingStarted = `

Getting Started:
  Run 'buildtrack enable' inside a project to install the Claude Code
  hooks. After that, every Edit/MultiEdit/Write is tracked per session
  under .claude/tsc-cache/.

`

// Version information (can be set at build time)
var (
	Version = "dev"
	Commit  = "unknown"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buildtrack",
		Short: "Tracks edited repos and their validation commands per agent session",
		Long: "buildtrack records which project subdirectories an AI coding agent touches\n" +
			"and which build/typecheck commands apply to them." + gettingStarted,
		// Let main.go handle error printing to avoid duplication
		SilenceErrors: true,
		// Hide completion command from help but keep it functional
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newEnableCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newHooksCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("buildtrack %s (%s)\n", Version, Commit)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
