package cmd

import (
	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume [session-id]",
	Short: "Resume a previous chat session",
	Long: `Resume reopens the interactive chat UI against an existing session.
With no argument it resumes the most recent session for this working
directory; with an id (or unique prefix) it resumes that one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResume,
}

func init() {
	addGlobalFlags(resumeCmd)
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		chatResume = args[0]
	} else {
		chatResume = " "
	}
	return runChat(cmd, nil)
}
