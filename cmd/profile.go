package cmd

import (
	"bytes"

	"github.com/BurntSushi/toml"
	"github.com/miyamgo/tmod-launcher/internal/logging"
	"github.com/miyamgo/tmod-launcher/internal/profile"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage saved option profiles",
}

// Flags for profile create
var (
	profInstallRoot    *string
	profRepo           *string
	profGithubToken    *string
	profNonInteractive *bool
	profVerbose        *bool
	profLogFile        *string
)

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new profile",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := profileFromFlags(cmd)
		if err := profile.Save(args[0], p); err != nil {
			return err
		}
		logging.Infof("Profile %q saved to %s\n", args[0], profile.Dir())
		return nil
	},
}

func profileFromFlags(cmd *cobra.Command) *profile.Profile {
	p := &profile.Profile{}
	if cmd.Flags().Changed("install-root") {
		p.InstallRoot = profInstallRoot
	}
	if cmd.Flags().Changed("repo") {
		p.Repo = profRepo
	}
	if cmd.Flags().Changed("github-token") {
		p.GithubToken = profGithubToken
	}
	if cmd.Flags().Changed("non-interactive") {
		p.NonInteractive = profNonInteractive
	}
	if cmd.Flags().Changed("verbose") {
		p.Verbose = profVerbose
	}
	if cmd.Flags().Changed("log-file") {
		p.LogFile = profLogFile
	}
	return p
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := profile.List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			logging.Infoln("No profiles saved.")
			return nil
		}
		for _, n := range names {
			logging.Infoln(n)
		}
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a profile's contents",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := profile.Load(args[0])
		if err != nil {
			return err
		}
		if p.GithubToken != nil {
			masked := "********"
			p.GithubToken = &masked
		}
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(p); err != nil {
			return err
		}
		logging.Infof("%s", buf.String())
		return nil
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved profile",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := profile.Delete(args[0]); err != nil {
			return err
		}
		logging.Infof("Profile %q deleted.\n", args[0])
		return nil
	},
}

func init() {
	// Wire up flags for create. We use local variables so they only apply to
	// this subcommand and don't collide with the root flags.
	profInstallRoot = profileCreateCmd.Flags().String("install-root", "", "Launcher folder holding tModLoader/ and Terraria/")
	profRepo = profileCreateCmd.Flags().String("repo", "", "GitHub repository to take releases from (org/name)")
	profGithubToken = profileCreateCmd.Flags().String("github-token", "", "GitHub token for API requests")
	profNonInteractive = profileCreateCmd.Flags().Bool("non-interactive", false, "Never wait for Enter on notices and errors")
	profVerbose = profileCreateCmd.Flags().Bool("verbose", false, "Enable verbose logging")
	profLogFile = profileCreateCmd.Flags().String("log-file", "", "Write command output to a log file")

	profileCmd.AddCommand(profileCreateCmd, profileListCmd, profileShowCmd, profileDeleteCmd)
	rootCmd.AddCommand(profileCmd)
}
