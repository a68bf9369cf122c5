package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestPickAsset(t *testing.T) {
	t.Run("first asset containing marker", func(t *testing.T) {
		assets := []ReleaseAsset{
			{Name: "tModLoader.Server.zip", BrowserDownloadURL: "https://example.test/server.zip"},
			{Name: "tModLoader.zip", BrowserDownloadURL: "https://example.test/a.zip"},
			{Name: "v2024-tModLoader.zip", BrowserDownloadURL: "https://example.test/b.zip"},
		}
		got := PickAsset(assets, "tModLoader.zip")
		if got == nil || got.BrowserDownloadURL != "https://example.test/a.zip" {
			t.Fatalf("PickAsset=%v, want first tModLoader.zip asset", got)
		}
	})

	t.Run("no match", func(t *testing.T) {
		assets := []ReleaseAsset{{Name: "ExampleMod.zip", BrowserDownloadURL: "https://example.test/x.zip"}}
		if got := PickAsset(assets, "tModLoader.zip"); got != nil {
			t.Fatalf("PickAsset=%v, want nil", got)
		}
	})

	t.Run("asset without url is ignored", func(t *testing.T) {
		assets := []ReleaseAsset{{Name: "tModLoader.zip"}}
		if got := PickAsset(assets, "tModLoader.zip"); got != nil {
			t.Fatalf("PickAsset=%v, want nil", got)
		}
	})
}

func TestFindAssetNotFound(t *testing.T) {
	_, err := FindAsset(&Release{TagName: "v1"}, "tModLoader.zip")
	if !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("err=%v want ErrAssetNotFound", err)
	}
}

func TestFetchLatestRelease(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/tModLoader/tModLoader/releases/latest" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "token test-token" {
			t.Errorf("unexpected Authorization header: %q", got)
		}
		rel := Release{
			TagName: "v2024.05.3.0",
			Assets: []ReleaseAsset{
				{Name: "tModLoader.zip", BrowserDownloadURL: "https://example.test/tModLoader.zip", Size: 10},
			},
		}
		if err := json.NewEncoder(w).Encode(rel); err != nil {
			t.Errorf("encoding response: %v", err)
		}
	}))
	defer server.Close()

	parsed, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("url.Parse failed: %v", err)
	}

	client := NewClient("", "test-token", &http.Client{
		Transport: &rewriteHostTransport{
			host: parsed.Host,
			rt:   server.Client().Transport,
		},
	})

	rel, err := client.FetchLatestRelease(context.Background(), "tModLoader/tModLoader")
	if err != nil {
		t.Fatalf("FetchLatestRelease failed: %v", err)
	}
	if rel.TagName != "v2024.05.3.0" {
		t.Fatalf("tag=%q want=v2024.05.3.0", rel.TagName)
	}
	asset, err := FindAsset(rel, "tModLoader.zip")
	if err != nil {
		t.Fatalf("FindAsset failed: %v", err)
	}
	if asset.BrowserDownloadURL != "https://example.test/tModLoader.zip" {
		t.Fatalf("url=%q", asset.BrowserDownloadURL)
	}
}

func TestFetchLatestReleaseHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", server.Client())
	_, err := client.FetchLatestRelease(context.Background(), "tModLoader/tModLoader")
	if err == nil || err.Error() != "HTTP 403" {
		t.Fatalf("err=%v want HTTP 403", err)
	}
	if errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("HTTP failure must not look like a missing asset")
	}
}

func TestLatestReleaseURL(t *testing.T) {
	c := NewClient("https://ghe.example.test/api/v3/", "", nil)
	want := "https://ghe.example.test/api/v3/repos/org/repo/releases/latest"
	if got := c.LatestReleaseURL("org/repo"); got != want {
		t.Fatalf("LatestReleaseURL=%q want=%q", got, want)
	}
}

type rewriteHostTransport struct {
	host string
	rt   http.RoundTripper
}

func (t *rewriteHostTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	cloned.URL.Scheme = "http"
	cloned.URL.Host = t.host
	return t.rt.RoundTrip(cloned)
}
