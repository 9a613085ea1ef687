package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/tradebook/internal/menu"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Inspect the sidebar menu",
}

var menuCheckCmd = &cobra.Command{
	Use:   "check [file-or-url]",
	Short: "Load and validate a menu description",
	Long:  `Loads the menu from the given file or URL (default: menu.source from the config), validates every section and item, and prints a summary.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := ""
		if len(args) == 1 {
			source = args[0]
		} else {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			source = cfg.Menu.Source
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		sections, err := menu.Load(ctx, source, &http.Client{})
		if err != nil {
			return err
		}
		if err := menu.Validate(sections); err != nil {
			return fmt.Errorf("menu %s is invalid:\n%w", source, err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d sections, %d items\n", source, len(sections), menu.ItemCount(sections))
		for i, s := range sections {
			fmt.Fprintf(out, "  [%d] %s (%d)\n", i, s.Title, len(s.Children))
		}
		return nil
	},
}

func init() {
	menuCmd.AddCommand(menuCheckCmd)
	rootCmd.AddCommand(menuCmd)
}
