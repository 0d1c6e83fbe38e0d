package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand assembles the rss command tree.
func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rss",
		Short: "Robust secret sharing with information checking",
		Long: `rss splits secrets into threshold shares that carry pairwise
information-checking tags (Rabin and Ben-Or). When recombining, shares
whose tags do not verify are detected and discarded, so up to
parts - threshold corrupted shares can be tolerated.

Shares are stored as JSON share files, optionally encrypted with a
password.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().String("config", "", "Config file (default $RSS_CONFIG or ~/.config/rss/config.json)")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write Prometheus metrics to this file when done")

	rootCmd.AddCommand(
		NewSplitCommand(),
		NewCombineCommand(),
		NewCheckCommand(),
		NewListCommand(),
		NewDeleteCommand(),
	)

	return rootCmd
}
