package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/miyamgo/tmod-launcher/internal/process"
	"github.com/spf13/cobra"
)

var launchCmd = &cobra.Command{
	Use:   "launch <tmodloader|terraria>",
	Short: "Start tModLoader or Terraria unless it is already running",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, fs, err := loadConfig()
		if err != nil {
			return err
		}
		if _, ok := cfg.Target(args[0]); !ok {
			names := make([]string, 0, 2)
			for _, t := range cfg.Targets() {
				names = append(names, strings.ToLower(t.Name))
			}
			return wrapUsageError(fmt.Errorf("unknown target %q (want one of %s)", args[0], strings.Join(names, ", ")))
		}

		ctrl := newController(cfg, fs)
		defer ctrl.Close()
		ctrl.Scan()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		res, err := ctrl.Launch(ctx, args[0])
		if err != nil {
			return err
		}
		switch res.Outcome {
		case process.OutcomeSkipped:
			r, _ := ctrl.Resolution(args[0])
			return fmt.Errorf("%s not found under %s", r.Target.Name, r.Target.RootDir)
		case process.OutcomeFailed:
			return res.Err
		}
		newConsole(false).Launched(res)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(launchCmd)
}
