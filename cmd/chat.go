package cmd

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ion-cli/ion/internal/session"
	"github.com/ion-cli/ion/internal/signal"
	"github.com/ion-cli/ion/internal/termio"
	"github.com/ion-cli/ion/internal/tui/app"
)

var (
	chatProvider string
	chatResume   string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive inline-mode chat session with the configured
provider. Scrollback is left to the terminal; only the bottom status,
composer, and any open popup are redrawn each frame.

Keyboard shortcuts:
  Enter        Send message
  Esc Esc      Clear composer / Esc while streaming cancels the turn
  Ctrl+C Ctrl+C  Quit
  Ctrl+R       Search input history
  Ctrl+Y       Copy last response to clipboard
  Tab          Accept popup selection

Slash commands: /model /provider /clear /resume /quit /help, plus //name
to invoke a skill.`,
	RunE: runChat,
}

func init() {
	addGlobalFlags(chatCmd)
	chatCmd.Flags().StringVarP(&chatProvider, "provider", "p", "", "Override provider, optionally with model (e.g. openai/gpt-5.2)")
	chatCmd.Flags().StringVarP(&chatResume, "resume", "r", "", "Resume session (empty for most recent, or session id)")
	chatCmd.Flags().Lookup("resume").NoOptDefVal = " "
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext()
	defer stop()

	if chatProvider != "" {
		flags.Model = chatProvider
	}

	cfg, err := loadConfigWithSetup()
	if err != nil {
		return err
	}

	cwd, err := resolveCWD()
	if err != nil {
		return err
	}

	store, err := initSessionStore(cfg)
	if err != nil {
		return err
	}

	provider, model := resolveProviderModel(cfg)

	var sess *session.Session
	resumeRequested := chatResume != "" || cmd.Flags().Changed("resume")
	if resumeRequested {
		sess, err = resolveResumeSession(ctx, store, strings.TrimSpace(chatResume))
		if err != nil {
			return err
		}
		provider, model = sess.Provider, sess.Model
	} else {
		sess = newSessionFor(cwd, provider, model)
		if err := store.Create(ctx, sess); err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
	}

	cfg.ApplyOverrides(provider, model)
	llmProvider, engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	m := app.New(cfg, store, sess, llmProvider, engine)

	// bubbletea owns raw-mode acquisition for the life of p.Run(); this hook
	// only guarantees the cursor comes back and the terminal isn't left in
	// sync-output mode if a panic escapes the render loop before bubbletea's
	// own cleanup runs.
	restore := termio.InstallPanicHook(nil)
	defer restore()

	p := tea.NewProgram(m)
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, err = p.Run()
	if err != nil {
		return fmt.Errorf("chat session failed: %w", err)
	}
	if ctx.Err() != nil {
		return errInterrupted
	}
	return nil
}

// resolveResumeSession implements --resume/-r: empty value means "most
// recent session for this working directory", otherwise it's a session id
// or id prefix.
func resolveResumeSession(ctx context.Context, store session.Store, id string) (*session.Session, error) {
	if id == "" {
		sess, err := loadMostRecentSession(ctx, store)
		if err != nil {
			return nil, err
		}
		if sess == nil {
			return nil, fmt.Errorf("no session to resume")
		}
		return sess, nil
	}
	sess, err := store.GetByPrefix(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %q: %w", id, err)
	}
	if sess == nil {
		return nil, fmt.Errorf("session %q not found", id)
	}
	return sess, nil
}
