package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ion-cli/ion/internal/llm"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured and built-in providers",
	RunE:  runProviders,
}

func init() {
	addGlobalFlags(providersCmd)
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigWithSetup()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "PROVIDER\tMODEL\tCONFIGURED\tACTIVE")

	configured := make(map[string]bool, len(cfg.Providers))
	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		configured[name] = true
		names = append(names, name)
	}
	for _, name := range llm.GetBuiltInProviderNames() {
		if !configured[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		model := ""
		if pc, ok := cfg.Providers[name]; ok {
			model = pc.Model
		}
		active := ""
		if name == cfg.DefaultProvider {
			active = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", name, model, configured[name], active)
	}
	return nil
}
