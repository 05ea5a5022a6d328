package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ion-cli/ion/internal/llm"
)

var modelsProvider string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available from a provider",
	Long: `List shows the models a provider reports, falling back to the
statically configured model list for providers whose API has no model
listing endpoint.`,
	RunE: runModels,
}

func init() {
	addGlobalFlags(modelsCmd)
	modelsCmd.Flags().StringVarP(&modelsProvider, "provider", "p", "", "Provider to query (default: the active provider)")
	rootCmd.AddCommand(modelsCmd)
}

// modelLister is implemented by providers backed by a real model-listing
// endpoint (Anthropic, OpenAI-compatible, xAI); providers without one fall
// back to the configured static Models list.
type modelLister interface {
	ListModels(ctx context.Context) ([]llm.ModelInfo, error)
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigWithSetup()
	if err != nil {
		return err
	}
	name := modelsProvider
	if name == "" {
		name = cfg.DefaultProvider
	}

	provider, err := llm.NewProviderByName(cfg, name, "")
	if err != nil {
		return err
	}
	if unwrapper, ok := provider.(interface{ Unwrap() llm.Provider }); ok {
		provider = unwrapper.Unwrap()
	}

	if lister, ok := provider.(modelLister); ok {
		models, err := lister.ListModels(cmd.Context())
		if err == nil {
			for _, m := range models {
				fmt.Fprintln(cmd.OutOrStdout(), m.ID)
			}
			return nil
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to list models from %s: %v\n", name, err)
	}

	if pc, ok := cfg.Providers[name]; ok && len(pc.Models) > 0 {
		for _, m := range pc.Models {
			fmt.Fprintln(cmd.OutOrStdout(), m)
		}
		return nil
	}
	if pc, ok := cfg.Providers[name]; ok && pc.Model != "" {
		fmt.Fprintln(cmd.OutOrStdout(), pc.Model)
		return nil
	}
	return fmt.Errorf("no model list available for provider %q", name)
}
