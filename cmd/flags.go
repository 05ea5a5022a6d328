// Package cmd is the cobra-based command surface: a launcher root command
// plus run/chat/resume/sessions/models/providers/mcp/skills/config
// subcommands sharing a common set of global flags.
package cmd

import (
	"github.com/spf13/cobra"
)

// globalFlags holds the persistent flag destinations shared by every
// subcommand that starts a provider/session, mirroring how the teacher's
// CommonFlags groups per-command flag pointers.
type globalFlags struct {
	Model      string // -m provider/model
	Output     string // -o text|json|stream-json
	Quiet      bool   // -q
	Verbose    bool   // -v
	AutoApprove bool  // -y
	MaxTurns   int    // --max-turns
	NoTools    bool   // --no-tools
	NoSession  bool   // --no-session
	CWD        string // --cwd
}

var flags globalFlags

// addGlobalFlags registers the flags every top-level command accepts,
// matching the External Interfaces surface: -m, -o, -q/-v, -y, --max-turns,
// --no-tools, --no-session, --cwd.
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&flags.Model, "model", "m", "", "Override provider/model (e.g. anthropic/claude-sonnet-4-5)")
	cmd.PersistentFlags().StringVarP(&flags.Output, "output", "o", "text", "Output format: text|json|stream-json")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Verbose diagnostic output")
	cmd.PersistentFlags().BoolVarP(&flags.AutoApprove, "yes", "y", false, "Auto-approve tool calls")
	cmd.PersistentFlags().IntVar(&flags.MaxTurns, "max-turns", 0, "Max agentic turns for this invocation (0 = config default)")
	cmd.PersistentFlags().BoolVar(&flags.NoTools, "no-tools", false, "Disable all local tools for this invocation")
	cmd.PersistentFlags().BoolVar(&flags.NoSession, "no-session", false, "Do not read or write session storage")
	cmd.PersistentFlags().StringVar(&flags.CWD, "cwd", "", "Working directory for session scoping and file tools (default: current directory)")
}

// exit codes per the External Interfaces contract: 0 success, 1 error,
// 2 interrupted, 3 max-turns reached.
const (
	exitOK          = 0
	exitError       = 1
	exitInterrupted = 2
	exitMaxTurns    = 3
)

func parseModelFlag(s string) (provider, model string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}
