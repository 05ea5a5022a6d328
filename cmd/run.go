package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ion-cli/ion/internal/llm"
	"github.com/ion-cli/ion/internal/session"
	"github.com/ion-cli/ion/internal/signal"
	"github.com/spf13/cobra"
)

// errInterrupted and errMaxTurns are sentinels Execute maps to the
// documented exit codes 2 and 3; every other error maps to 1.
var (
	errInterrupted = errors.New("interrupted")
	errMaxTurns    = errors.New("max turns reached")
)

var runFiles []string

var runCmd = &cobra.Command{
	Use:   "run <prompt>",
	Short: "Run a single non-interactive prompt",
	Long: `Run sends one prompt to the configured provider and prints the
response, without opening the interactive chat UI.

A prompt of "-" reads the prompt from stdin. -f/--file attaches file
contents as additional context, and may be repeated.`,
	Args: cobra.ArbitraryArgs,
	RunE: runOneShot,
}

func init() {
	addGlobalFlags(runCmd)
	runCmd.Flags().StringArrayVarP(&runFiles, "file", "f", nil, "Attach a file's contents as context (repeatable)")
	rootCmd.AddCommand(runCmd)
}

func runOneShot(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext()
	defer stop()

	prompt, err := resolvePrompt(args)
	if err != nil {
		return err
	}
	if prompt == "" {
		return fmt.Errorf("no prompt given (pass text, or \"-\" to read stdin)")
	}

	cfg, err := loadConfigWithSetup()
	if err != nil {
		return err
	}
	provider, model := resolveProviderModel(cfg)
	cfg.ApplyOverrides(provider, model)

	llmProvider, engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	var sess *session.Session
	var store session.Store
	if !flags.NoSession {
		store, err = initSessionStore(cfg)
		if err != nil {
			return err
		}
		cwd, err := resolveCWD()
		if err != nil {
			return err
		}
		sess = newSessionFor(cwd, provider, model)
		sess.Mode = session.ModeRun
		if err := store.Create(ctx, sess); err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
	}

	for _, path := range runFiles {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		prompt = fmt.Sprintf("%s\n\n--- %s ---\n%s", prompt, path, content)
	}

	req := llm.Request{
		Model:    model,
		Messages: []llm.Message{llm.UserText(prompt)},
		MaxTurns: resolveMaxTurns(cfg, 50),
	}

	stream, err := engine.Stream(ctx, req)
	if err != nil {
		return err
	}
	defer stream.Close()

	_ = llmProvider // retained for parity with chat's wiring; engine owns the provider reference

	var out strings.Builder
	for {
		event, err := stream.Recv()
		if err != nil {
			if err == io.EOF {
				break
			}
			if strings.Contains(err.Error(), "exceeded max turns") {
				return errMaxTurns
			}
			return err
		}
		switch event.Type {
		case llm.EventTextDelta:
			out.WriteString(event.Text)
			if flags.Output == "stream-json" {
				emitStreamJSON(cmd.OutOrStdout(), event)
			} else if flags.Output != "json" {
				fmt.Fprint(cmd.OutOrStdout(), event.Text)
			}
		case llm.EventDone:
			goto done
		case llm.EventError:
			return event.Err
		}
		if ctx.Err() != nil {
			return errInterrupted
		}
	}
done:
	if flags.Output != "text" {
		switch flags.Output {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			_ = enc.Encode(map[string]string{"response": out.String()})
		}
	} else if !strings.HasSuffix(out.String(), "\n") {
		fmt.Fprintln(cmd.OutOrStdout())
	}

	if sess != nil {
		sess.UpdatedAt = time.Now()
		_ = store.Update(ctx, sess)
	}
	return nil
}

// resolvePrompt joins positional args into one prompt, or reads stdin when
// the sole argument is "-".
func resolvePrompt(args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return strings.Join(args, " "), nil
}

func emitStreamJSON(w io.Writer, event llm.Event) {
	enc := json.NewEncoder(w)
	_ = enc.Encode(map[string]string{"type": string(event.Type), "text": event.Text})
}
