package cmd

import (
	"os"

	"github.com/miyamgo/tmod-launcher/internal/config"
	"github.com/miyamgo/tmod-launcher/internal/downloader"
	"github.com/miyamgo/tmod-launcher/internal/github"
	"github.com/miyamgo/tmod-launcher/internal/launcher"
	"github.com/miyamgo/tmod-launcher/internal/logging"
	"github.com/miyamgo/tmod-launcher/internal/process"
	"github.com/miyamgo/tmod-launcher/internal/ui"
	"github.com/miyamgo/tmod-launcher/internal/updater"
	"github.com/spf13/afero"
)

func updaterOptions(cfg *config.Config) updater.Options {
	return updater.Options{
		Repo:        cfg.Repo,
		AssetMarker: cfg.AssetMarker,
		InstallDir:  cfg.ModLoader.RootDir,
	}
}

func newReleaseClient(cfg *config.Config) *github.Client {
	return github.NewClient(cfg.APIURL, getGithubToken(), nil)
}

// newController wires the production collaborators: the system process
// table, real process spawning and the GitHub-backed update pipeline.
func newController(cfg *config.Config, fs afero.Fs) *launcher.Controller {
	up := updater.New(updaterOptions(cfg), fs, newReleaseClient(cfg), downloader.New(nil, 0))
	dispatcher := process.NewDispatcher(process.NewChecker(nil), process.ExecStarter())
	return launcher.New(cfg, fs, dispatcher, up, 0)
}

// newConsole renders to the log writer. Prompts wait for Enter only when
// stdin is a terminal and --non-interactive is unset.
func newConsole(withInput bool) *ui.Console {
	tty := ui.IsTerminal(os.Stdout)
	opts := ui.Options{
		Terminal:     tty,
		WaitOnPrompt: !nonInteractive && ui.IsTerminal(os.Stdin),
	}
	if !withInput {
		opts.WaitOnPrompt = false
		return ui.NewConsole(logging.Writer(), nil, opts)
	}
	return ui.NewConsole(logging.Writer(), os.Stdin, opts)
}
