package cmd

import (
	"github.com/miyamgo/tmod-launcher/internal/locator"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Show which games are installed and launchable",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, fs, err := loadConfig()
		if err != nil {
			return err
		}
		newConsole(false).Availability(locator.ScanAll(fs, cfg.Targets()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
