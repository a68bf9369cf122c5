package updater

import (
	"context"
	"fmt"

	"github.com/miyamgo/tmod-launcher/internal/config"
	"github.com/miyamgo/tmod-launcher/internal/github"
	"github.com/miyamgo/tmod-launcher/internal/logging"
	"github.com/miyamgo/tmod-launcher/internal/semver"
	"github.com/spf13/afero"
)

// StatusReport compares the installed release with the latest one.
type StatusReport struct {
	Installed       *config.InstallState
	LatestTag       string
	LatestAsset     string
	AssetMissing    bool
	UpdateAvailable bool
}

// Status reads the installed state from opts.InstallDir and queries the
// latest release. It never writes.
func Status(ctx context.Context, fs afero.Fs, releases ReleaseSource, opts Options) (*StatusReport, error) {
	installed, err := config.LoadState(fs, opts.InstallDir)
	if err != nil {
		return nil, err
	}

	rel, err := releases.FetchLatestRelease(ctx, opts.Repo)
	if err != nil {
		return nil, fmt.Errorf("fetching release info: %w", err)
	}

	report := &StatusReport{Installed: installed, LatestTag: rel.TagName}
	if asset := github.PickAsset(rel.Assets, opts.AssetMarker); asset != nil {
		report.LatestAsset = asset.Name
	} else {
		report.AssetMissing = true
	}

	switch {
	case installed == nil || installed.Tag == "":
		report.UpdateAvailable = !report.AssetMissing
	default:
		report.UpdateAvailable = !report.AssetMissing && semver.Compare(rel.TagName, installed.Tag) > 0
	}

	logging.Debugf("Verbose: status installed=%v latest=%s asset-missing=%t update=%t\n",
		installed != nil, rel.TagName, report.AssetMissing, report.UpdateAvailable)
	return report, nil
}
