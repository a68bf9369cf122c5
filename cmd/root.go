package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/miyamgo/tmod-launcher/internal/config"
	"github.com/miyamgo/tmod-launcher/internal/logging"
	"github.com/miyamgo/tmod-launcher/internal/profile"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	installRoot    string
	repo           string
	githubToken    string
	profileName    string
	verbose        bool
	logFile        string
	nonInteractive bool
)

var rootCmd = &cobra.Command{
	Use:           "tmod-launcher",
	Short:         "Launcher and updater for tModLoader and Terraria",
	Long:          "Find and start tModLoader or Terraria from a launcher folder, and install the latest tModLoader release from GitHub.",
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          usageArgs(cobra.NoArgs),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Apply profile defaults for flags not explicitly set by the user.
		if profileName != "" {
			p, err := profile.Load(profileName)
			if err != nil {
				return err
			}
			applyProfile(cmd, p)
		}

		logging.SetVerbose(verbose)
		if err := logging.SetOutputFile(logFile); err != nil {
			return fmt.Errorf("opening log file %q: %w", logFile, err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMenu(cmd.Context())
	},
}

func applyProfile(cmd *cobra.Command, p *profile.Profile) {
	if p.InstallRoot != nil && !cmd.Flags().Changed("install-root") {
		installRoot = *p.InstallRoot
	}
	if p.Repo != nil && !cmd.Flags().Changed("repo") {
		repo = *p.Repo
	}
	if p.GithubToken != nil && !cmd.Flags().Changed("github-token") {
		githubToken = *p.GithubToken
	}
	if p.NonInteractive != nil && !cmd.Flags().Changed("non-interactive") {
		nonInteractive = *p.NonInteractive
	}
	if p.Verbose != nil && !cmd.Flags().Changed("verbose") {
		verbose = *p.Verbose
	}
	if p.LogFile != nil && !cmd.Flags().Changed("log-file") {
		logFile = *p.LogFile
	}
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		// Before Close so the error also lands in --log-file.
		logging.Errorf("%v\n", err)
	}
	closeErr := logging.Close()
	if closeErr != nil {
		fmt.Fprintf(os.Stderr, "Error closing log file: %v\n", closeErr)
		if err == nil {
			os.Exit(1)
		}
	}
	if err != nil {
		if isUsageError(err) {
			if cmd, _, findErr := rootCmd.Find(os.Args[1:]); findErr == nil && cmd != nil {
				_ = cmd.Usage()
			} else {
				_ = rootCmd.Usage()
			}
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return wrapUsageError(err)
	})

	rootCmd.PersistentFlags().StringVarP(&installRoot, "install-root", "d", "", "Launcher folder holding tModLoader/ and Terraria/ (default: the executable's folder)")
	rootCmd.PersistentFlags().StringVar(&repo, "repo", "", "GitHub repository to take releases from, org/name (overrides launcher.toml)")
	rootCmd.PersistentFlags().StringVar(&githubToken, "github-token", "", "GitHub token for API requests (also reads GITHUB_TOKEN env)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "Load a saved option profile by name")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write command output to a log file")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Never wait for Enter on notices and errors")
}

func getGithubToken() string {
	if githubToken != "" {
		return githubToken
	}
	return os.Getenv("GITHUB_TOKEN")
}

// resolveInstallRoot returns --install-root, or the folder of the running
// executable when it is unset.
func resolveInstallRoot() (string, error) {
	if installRoot != "" {
		return filepath.Abs(installRoot)
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

func loadConfig() (*config.Config, afero.Fs, error) {
	root, err := resolveInstallRoot()
	if err != nil {
		return nil, nil, err
	}
	fs := afero.NewOsFs()
	cfg, err := config.Load(fs, root)
	if err != nil {
		return nil, nil, err
	}
	if repo != "" {
		cfg.Repo = repo
		if err := cfg.Validate(); err != nil {
			return nil, nil, wrapUsageError(err)
		}
	}
	logging.Debugf("Verbose: install-root=%q repo=%s asset-marker=%q\n", cfg.InstallRoot, cfg.Repo, cfg.AssetMarker)
	return cfg, fs, nil
}

type usageError struct {
	err error
}

func (e *usageError) Error() string {
	return e.err.Error()
}

func (e *usageError) Unwrap() error {
	return e.err
}

func wrapUsageError(err error) error {
	if err == nil {
		return nil
	}
	return &usageError{err: err}
}

func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if validate == nil {
			return nil
		}
		if err := validate(cmd, args); err != nil {
			return wrapUsageError(err)
		}
		return nil
	}
}

func isUsageError(err error) bool {
	var ue *usageError
	if errors.As(err, &ue) {
		return true
	}

	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command ")
}
