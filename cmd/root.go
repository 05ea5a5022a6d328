package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ion [prompt]",
	Short: "A terminal AI agent",
	Long: `ion is a terminal AI agent: an interactive chat session with tool use,
session persistence, and pluggable providers.

Running ion with no arguments starts the interactive chat. Passing a prompt
directly is shorthand for "ion run <prompt>".

Examples:
  ion                               start interactive chat
  ion "summarize this repo"         one-shot, non-interactive
  ion --continue                    resume the most recent session here
  ion --resume <id>                 resume a specific session by id
  ion chat --provider openai        interactive chat on a specific provider`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

var (
	rootContinue bool
	rootResume   string
)

func init() {
	addGlobalFlags(rootCmd)
	rootCmd.Flags().BoolVar(&rootContinue, "continue", false, "Resume the most recent session for this working directory")
	rootCmd.Flags().StringVar(&rootResume, "resume", "", "Resume a session by id (empty: the most recent session)")
	rootCmd.Flags().Lookup("resume").NoOptDefVal = " "
}

// Execute runs the command tree and maps errors to the documented exit
// codes: 0 success, 1 error, 2 interrupted, 3 max-turns reached.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ion:", err)
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	switch {
	case err == errInterrupted:
		return exitInterrupted
	case err == errMaxTurns:
		return exitMaxTurns
	default:
		return exitError
	}
}

// runRoot is the launcher entry point: no subcommand means "start chat",
// optionally resuming a session; positional args are shorthand for `run`.
func runRoot(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return runOneShot(cmd, args)
	}
	if rootContinue {
		chatResume = " "
	} else if cmd.Flags().Changed("resume") {
		chatResume = rootResume
	}
	return runChat(cmd, nil)
}
