package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ion-cli/ion/internal/session"
)

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List saved sessions",
	RunE:  runSessions,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

func init() {
	addGlobalFlags(sessionsCmd)
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "Maximum sessions to list")
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigWithSetup()
	if err != nil {
		return err
	}
	store, err := initSessionStore(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	summaries, err := store.List(ctx, session.ListOptions{Limit: sessionsLimit})
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no sessions")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "ID\tPROVIDER/MODEL\tMESSAGES\tUPDATED\tSUMMARY")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s/%s\t%d\t%s\t%s\n",
			shortID(s.ID), s.Provider, s.Model, s.MessageCount,
			s.UpdatedAt.Format("2006-01-02 15:04"), s.Summary)
	}
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigWithSetup()
	if err != nil {
		return err
	}
	store, err := initSessionStore(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	sess, err := store.GetByPrefix(ctx, args[0])
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session %q not found", args[0])
	}
	if err := store.Delete(ctx, sess.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", shortID(sess.ID))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
