package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultAPIURL is the public GitHub REST endpoint.
const DefaultAPIURL = "https://api.github.com"

// QueryTimeout bounds the whole latest-release metadata request.
const QueryTimeout = 10 * time.Second

// ErrAssetNotFound means the release exists but carries no asset matching
// the expected name.
var ErrAssetNotFound = errors.New("release asset not found")

// Release is the subset of GitHub's release API response we need.
type Release struct {
	TagName     string         `json:"tag_name"`
	Name        string         `json:"name"`
	Prerelease  bool           `json:"prerelease"`
	PublishedAt string         `json:"published_at"`
	Assets      []ReleaseAsset `json:"assets"`
}

// ReleaseAsset represents a downloadable file attached to a GitHub release.
type ReleaseAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

var githubHTTPClient = &http.Client{Timeout: QueryTimeout}

// Client queries release metadata for one repository.
type Client struct {
	apiURL string
	token  string
	http   *http.Client
}

// NewClient creates a Client. An empty apiURL selects DefaultAPIURL and a
// nil httpClient selects a client with QueryTimeout.
func NewClient(apiURL, token string, httpClient *http.Client) *Client {
	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = githubHTTPClient
	}
	return &Client{apiURL: apiURL, token: token, http: httpClient}
}

// LatestReleaseURL returns the metadata endpoint for repo ("org/name").
func (c *Client) LatestReleaseURL(repo string) string {
	return fmt.Sprintf("%s/repos/%s/releases/latest", c.apiURL, strings.Trim(repo, "/"))
}

// FetchLatestRelease fetches the latest published release of repo.
func (c *Client) FetchLatestRelease(ctx context.Context, repo string) (*Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.LatestReleaseURL(repo), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("parsing release: %w", err)
	}
	return &rel, nil
}

// PickAsset returns the first asset whose name contains marker, or nil.
func PickAsset(assets []ReleaseAsset, marker string) *ReleaseAsset {
	for i, a := range assets {
		if strings.Contains(a.Name, marker) && strings.TrimSpace(a.BrowserDownloadURL) != "" {
			return &assets[i]
		}
	}
	return nil
}

// FindAsset is PickAsset returning ErrAssetNotFound on a miss.
func FindAsset(rel *Release, marker string) (*ReleaseAsset, error) {
	if rel != nil {
		if a := PickAsset(rel.Assets, marker); a != nil {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: no asset containing %q", ErrAssetNotFound, marker)
}
