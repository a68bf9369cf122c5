package updater

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/miyamgo/tmod-launcher/internal/archive"
	"github.com/miyamgo/tmod-launcher/internal/config"
	"github.com/miyamgo/tmod-launcher/internal/downloader"
	"github.com/miyamgo/tmod-launcher/internal/github"
	"github.com/miyamgo/tmod-launcher/internal/locator"
	"github.com/spf13/afero"
)

const installDir = "/launcher/tModLoader"

var modLoaderNames = []string{"tModLoader.exe", "start-tmodloader.bat", "start-tmodloader.sh"}

func zipWith(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip Create failed: %v", err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip Write failed: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip Close failed: %v", err)
	}
	return buf.Bytes()
}

type releaseServer struct {
	*httptest.Server
	downloads atomic.Int32
}

// newReleaseServer serves a latest-release document listing assetNames and
// answers every asset download with payload.
func newReleaseServer(t *testing.T, assetNames []string, payload []byte) *releaseServer {
	t.Helper()
	rs := &releaseServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/tModLoader/tModLoader/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		rel := github.Release{TagName: "v2024.05.3.0"}
		for _, n := range assetNames {
			rel.Assets = append(rel.Assets, github.ReleaseAsset{
				Name:               n,
				BrowserDownloadURL: rs.URL + "/download/" + n,
			})
		}
		_ = json.NewEncoder(w).Encode(rel)
	})
	mux.HandleFunc("/download/", func(w http.ResponseWriter, r *http.Request) {
		rs.downloads.Add(1)
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = w.Write(payload)
	})
	rs.Server = httptest.NewServer(mux)
	t.Cleanup(rs.Close)
	return rs
}

func newTestUpdater(rs *releaseServer, fs afero.Fs, chunk int) *Updater {
	opts := Options{Repo: "tModLoader/tModLoader", AssetMarker: "tModLoader.zip", InstallDir: installDir}
	return New(opts, fs,
		github.NewClient(rs.URL, "", rs.Client()),
		downloader.New(rs.Client(), chunk),
	)
}

func TestRunHappyPath(t *testing.T) {
	payload := zipWith(t, map[string]string{
		"tModLoader.dll":      "dll",
		"start-tmodloader.sh": "#!/bin/sh\n",
		"Libraries/a.txt":     "a",
	})
	rs := newReleaseServer(t, []string{"tModLoader.zip"}, payload)
	fs := afero.NewMemMapFs()

	var got []Progress
	res, err := newTestUpdater(rs, fs, 0).Run(context.Background(), func(p Progress) {
		got = append(got, p)
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Tag != "v2024.05.3.0" || res.Asset != "tModLoader.zip" || res.Files != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}

	last := got[len(got)-1]
	if last.Phase != Done {
		t.Fatalf("final phase=%s want=done", last.Phase)
	}
	if f, ok := last.Fraction(); !ok || f != 1.0 || last.Percent() != 100 {
		t.Fatalf("final progress=%+v want exactly 100%%", last)
	}

	// Phases never go backwards and none is skipped.
	prev := Querying
	seen := map[Phase]bool{}
	for _, p := range got {
		if p.Phase < prev || p.Phase > prev+1 {
			t.Fatalf("phase jumped from %s to %s", prev, p.Phase)
		}
		prev = p.Phase
		seen[p.Phase] = true
	}
	for _, ph := range []Phase{Querying, Downloading, Extracting, Done} {
		if !seen[ph] {
			t.Fatalf("phase %s never reported", ph)
		}
	}
	if seen[Failed] {
		t.Fatalf("Failed reported on success")
	}

	path, ok := locator.Locate(fs, installDir, modLoaderNames)
	if !ok || path != filepath.Join(installDir, "start-tmodloader.sh") {
		t.Fatalf("Locate after update=(%q, %t)", path, ok)
	}

	state, err := config.LoadState(fs, installDir)
	if err != nil || state == nil || state.Tag != "v2024.05.3.0" {
		t.Fatalf("install state=(%+v, %v)", state, err)
	}
}

func TestRunAssetNotFound(t *testing.T) {
	rs := newReleaseServer(t, []string{"ExampleMod.zip", "tModLoader.Server.tar.gz"}, nil)
	fs := afero.NewMemMapFs()

	var phases []Phase
	_, err := newTestUpdater(rs, fs, 0).Run(context.Background(), func(p Progress) {
		phases = append(phases, p.Phase)
	})
	if !errors.Is(err, github.ErrAssetNotFound) {
		t.Fatalf("err=%v want ErrAssetNotFound", err)
	}
	if Classify(err) != KindNotFound {
		t.Fatalf("Classify=%s want=not-found", Classify(err))
	}
	var f *Failure
	if !errors.As(err, &f) || f.Phase != Querying {
		t.Fatalf("failure=%+v want phase querying", f)
	}
	if n := rs.downloads.Load(); n != 0 {
		t.Fatalf("download attempted %d times", n)
	}
	if exists, _ := afero.Exists(fs, installDir); exists {
		t.Fatalf("install dir touched on asset miss")
	}
	if len(phases) != 2 || phases[0] != Querying || phases[1] != Failed {
		t.Fatalf("phases=%v want [querying failed]", phases)
	}
}

func TestRunCorruptArchive(t *testing.T) {
	rs := newReleaseServer(t, []string{"tModLoader.zip"}, []byte("this is not a zip file"))
	fs := afero.NewMemMapFs()

	var final Progress
	_, err := newTestUpdater(rs, fs, 0).Run(context.Background(), func(p Progress) { final = p })
	if Classify(err) != KindArchive {
		t.Fatalf("Classify=%s want=archive (err=%v)", Classify(err), err)
	}
	var ae *archive.Error
	if !errors.As(err, &ae) {
		t.Fatalf("err=%T want *archive.Error inside", err)
	}
	if final.Phase != Failed {
		t.Fatalf("final phase=%s want=failed", final.Phase)
	}
	if state, _ := config.LoadState(fs, installDir); state != nil {
		t.Fatalf("install state written after failed extraction: %+v", state)
	}
}

func TestRunNetworkFailure(t *testing.T) {
	rs := newReleaseServer(t, nil, nil)
	rs.Close()

	_, err := newTestUpdater(rs, afero.NewMemMapFs(), 0).Run(context.Background(), nil)
	if Classify(err) != KindNetwork {
		t.Fatalf("Classify=%s want=network (err=%v)", Classify(err), err)
	}
	if errors.Is(err, github.ErrAssetNotFound) {
		t.Fatalf("network failure reported as missing asset")
	}
}

func TestRunDownloadProgress(t *testing.T) {
	const size = 1_000_000
	payload := bytes.Repeat([]byte{1}, size)
	rs := newReleaseServer(t, []string{"tModLoader.zip"}, payload)

	var fractions []float64
	_, _ = newTestUpdater(rs, afero.NewMemMapFs(), size/5).Run(context.Background(), func(p Progress) {
		if p.Phase == Downloading && p.BytesDownloaded > 0 {
			f, ok := p.Fraction()
			if !ok {
				t.Errorf("fraction unknown with declared length")
			}
			fractions = append(fractions, f)
		}
	})

	if len(fractions) != 5 {
		t.Fatalf("download callbacks=%d want=5", len(fractions))
	}
	for i := 1; i < len(fractions); i++ {
		if fractions[i] < fractions[i-1] {
			t.Fatalf("fractions decreased: %v", fractions)
		}
	}
	if fractions[4] != 1.0 {
		t.Fatalf("last fraction=%v want=1.0", fractions[4])
	}
}

type blockingSource struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingSource) FetchLatestRelease(ctx context.Context, repo string) (*github.Release, error) {
	close(b.entered)
	<-b.release
	return nil, errors.New("offline")
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	src := &blockingSource{entered: make(chan struct{}), release: make(chan struct{})}
	u := New(Options{Repo: "tModLoader/tModLoader", AssetMarker: "tModLoader.zip", InstallDir: installDir},
		afero.NewMemMapFs(), src, downloader.New(nil, 0))

	done := make(chan error, 1)
	go func() {
		_, err := u.Run(context.Background(), nil)
		done <- err
	}()

	<-src.entered
	if !u.Running() {
		t.Fatalf("Running=false during a run")
	}
	if _, err := u.Run(context.Background(), nil); !errors.Is(err, ErrUpdateInProgress) {
		t.Fatalf("second Run err=%v want ErrUpdateInProgress", err)
	}

	close(src.release)
	if err := <-done; Classify(err) != KindNetwork {
		t.Fatalf("first Run err=%v want network failure", err)
	}
	if u.Running() {
		t.Fatalf("Running=true after run finished")
	}
}
