package cmd

import (
	"context"

	"github.com/miyamgo/tmod-launcher/internal/config"
	"github.com/miyamgo/tmod-launcher/internal/logging"
	"github.com/miyamgo/tmod-launcher/internal/updater"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the installed tModLoader release vs the latest one",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, fs, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		report, err := updater.Status(ctx, fs, newReleaseClient(cfg), updaterOptions(cfg))
		if err != nil {
			return err
		}
		printStatus(report)
		return nil
	},
}

func printStatus(r *updater.StatusReport) {
	if r.Installed == nil || r.Installed.Tag == "" {
		logging.Infoln("Installed: unknown (no update has been run by this launcher)")
	} else {
		logging.Infof("Installed: %s (%s)\n", r.Installed.Tag, r.Installed.InstalledAt.Local().Format("2006-01-02 15:04"))
	}
	logging.Infof("Latest:    %s\n", r.LatestTag)
	switch {
	case r.AssetMissing:
		logging.Infoln("The latest release has no matching download.")
	case r.UpdateAvailable:
		logging.Infof("Update available: %s\n", r.LatestAsset)
	default:
		logging.Infoln("Up to date.")
	}
}

func loadInstallState(cfg *config.Config, fs afero.Fs) (*config.InstallState, error) {
	return config.LoadState(fs, cfg.ModLoader.RootDir)
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
