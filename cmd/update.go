package cmd

import (
	"context"

	"github.com/miyamgo/tmod-launcher/internal/launcher"
	"github.com/miyamgo/tmod-launcher/internal/logging"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Download and extract the latest tModLoader release",
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

		ctrl := newController(cfg, fs)
		if err := ctrl.StartUpdate(ctx); err != nil {
			ctrl.Close()
			return err
		}

		// The error is returned for Execute to print, so it is not rendered.
		console := newConsole(false)
		var runErr error
		for ev := range ctrl.Events() {
			if ev.Kind == launcher.EventError {
				runErr = ev.Err
				continue
			}
			console.Render(ev)
			if ev.Kind == launcher.EventUpdateBusy && !ev.Busy {
				break
			}
		}
		ctrl.Close()

		if runErr != nil {
			return runErr
		}
		if state, err := loadInstallState(cfg, fs); err == nil && state != nil {
			logging.Infof("\nInstalled %s (%s, %d bytes) into %s\n", state.Tag, state.Asset, state.Bytes, cfg.ModLoader.RootDir)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
