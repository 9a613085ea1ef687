package cmd

import "github.com/spf13/cobra"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "tradebook",
	Short: "Trade journal server with a persistent sidebar",
	Long: `Tradebook serves a small trade journal: markdown pages with a
collapsible navigation sidebar, backed by a hosted PostgREST/GoTrue
project that stores each user's settings, brokers and trades.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".tradebook.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}
