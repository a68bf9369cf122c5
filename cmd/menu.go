package cmd

import (
	"context"

	"github.com/miyamgo/tmod-launcher/internal/ui"
	"github.com/spf13/cobra"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Interactive launcher menu (default when no command is given)",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMenu(cmd.Context())
	},
}

func runMenu(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, fs, err := loadConfig()
	if err != nil {
		return err
	}
	console := newConsole(true)
	return ui.NewMenu(console, newController(cfg, fs)).Run(ctx)
}

func init() {
	rootCmd.AddCommand(menuCmd)
}
