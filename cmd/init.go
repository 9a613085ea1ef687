package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/tradebook/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize tradebook configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the backend, menu and server, and writes a .tradebook.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
