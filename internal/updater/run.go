package updater

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/miyamgo/tmod-launcher/internal/archive"
	"github.com/miyamgo/tmod-launcher/internal/config"
	"github.com/miyamgo/tmod-launcher/internal/downloader"
	"github.com/miyamgo/tmod-launcher/internal/github"
	"github.com/miyamgo/tmod-launcher/internal/logging"
	"github.com/spf13/afero"
)

// ReleaseSource looks up the latest release of a repository.
type ReleaseSource interface {
	FetchLatestRelease(ctx context.Context, repo string) (*github.Release, error)
}

// Fetcher downloads a URL into memory with per-chunk progress.
type Fetcher interface {
	Fetch(ctx context.Context, url string, onChunk func(downloader.Progress)) ([]byte, error)
}

// Updater installs the latest mod-loader release. It refuses to start a
// second run while one is in flight.
type Updater struct {
	opts     Options
	fs       afero.Fs
	releases ReleaseSource
	fetcher  Fetcher
	now      func() time.Time

	running atomic.Bool
}

// New creates an Updater.
func New(opts Options, fs afero.Fs, releases ReleaseSource, fetcher Fetcher) *Updater {
	return &Updater{
		opts:     opts,
		fs:       fs,
		releases: releases,
		fetcher:  fetcher,
		now:      time.Now,
	}
}

// Running reports whether a run is in flight.
func (u *Updater) Running() bool {
	return u.running.Load()
}

// Run performs Querying, Downloading and Extracting in order, reporting
// every transition and download chunk to onProgress. It ends with exactly
// one Done or Failed report. Errors are *Failure values except
// ErrUpdateInProgress.
func (u *Updater) Run(ctx context.Context, onProgress func(Progress)) (*Result, error) {
	if !u.running.CompareAndSwap(false, true) {
		return nil, ErrUpdateInProgress
	}
	defer u.running.Store(false)

	emit := func(p Progress) {
		if onProgress != nil {
			onProgress(p)
		}
	}
	var last Progress
	fail := func(phase Phase, kind Kind, err error) (*Result, error) {
		logging.Debugf("Verbose: update failed phase=%s kind=%s err=%v\n", phase, kind, err)
		emit(Progress{Phase: Failed, BytesDownloaded: last.BytesDownloaded, BytesTotal: last.BytesTotal})
		return nil, &Failure{Phase: phase, Kind: kind, Err: err}
	}

	logging.Debugf("Verbose: update start repo=%s marker=%q dest=%q\n", u.opts.Repo, u.opts.AssetMarker, u.opts.InstallDir)

	emit(Progress{Phase: Querying})
	rel, err := u.releases.FetchLatestRelease(ctx, u.opts.Repo)
	if err != nil {
		return fail(Querying, KindNetwork, fmt.Errorf("fetching release info: %w", err))
	}
	asset, err := github.FindAsset(rel, u.opts.AssetMarker)
	if err != nil {
		return fail(Querying, KindNotFound, err)
	}
	logging.Debugf("Verbose: release tag=%s asset=%s url=%s\n", rel.TagName, asset.Name, asset.BrowserDownloadURL)

	last = Progress{Phase: Downloading}
	emit(last)
	data, err := u.fetcher.Fetch(ctx, asset.BrowserDownloadURL, func(p downloader.Progress) {
		last = Progress{Phase: Downloading, BytesDownloaded: p.Downloaded, BytesTotal: p.Total}
		emit(last)
	})
	if err != nil {
		return fail(Downloading, KindNetwork, err)
	}

	size := int64(len(data))
	last = Progress{Phase: Extracting, BytesDownloaded: size, BytesTotal: last.BytesTotal}
	emit(last)
	files, err := archive.Extract(u.fs, data, u.opts.InstallDir)
	if err != nil {
		var ae *archive.Error
		if !errors.As(err, &ae) {
			err = &archive.Error{Err: err}
		}
		return fail(Extracting, KindArchive, err)
	}

	state := &config.InstallState{Tag: rel.TagName, Asset: asset.Name, Bytes: size, InstalledAt: u.now().UTC()}
	if err := state.Save(u.fs, u.opts.InstallDir); err != nil {
		logging.Warnf("could not record installed release: %v\n", err)
	}

	emit(Progress{Phase: Done, BytesDownloaded: size, BytesTotal: size})
	return &Result{Tag: rel.TagName, Asset: asset.Name, Bytes: size, Files: files}, nil
}
