// Package update checks a GitHub release feed for a newer version. It is a
// standalone convenience unrelated to the status pipeline; failures are soft
// and never block the viewer.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultAPIBase = "https://api.github.com"

// Info describes an available update.
type Info struct {
	HasUpdate      bool   `json:"has_update"`
	CurrentVersion string `json:"current_version"`
	LatestVersion  string `json:"latest_version"`
	URL            string `json:"url,omitempty"`
}

// Checker queries /repos/<repo>/releases/latest.
type Checker struct {
	Repo       string
	APIBase    string
	HTTPClient *http.Client
}

func NewChecker(repo string) *Checker {
	return &Checker{Repo: repo}
}

type release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Check compares the current version against the latest release tag.
func (c *Checker) Check(ctx context.Context, currentVersion string) (Info, error) {
	info := Info{CurrentVersion: currentVersion}
	if c.Repo == "" {
		return info, fmt.Errorf("update: no repo configured")
	}
	base := c.APIBase
	if base == "" {
		base = defaultAPIBase
	}
	url := fmt.Sprintf("%s/repos/%s/releases/latest", strings.TrimRight(base, "/"), c.Repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return info, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return info, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return info, fmt.Errorf("update: release feed returned status %d", resp.StatusCode)
	}
	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return info, fmt.Errorf("update: decode release: %w", err)
	}
	info.LatestVersion = strings.TrimPrefix(rel.TagName, "v")
	info.URL = rel.HTMLURL
	info.HasUpdate = CompareVersions(info.LatestVersion, currentVersion) > 0
	return info, nil
}

// CompareVersions compares dotted numeric versions: 1 if a > b, -1 if a < b,
// 0 if equal. Missing segments count as zero; non-numeric segments as zero.
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(as) {
			av, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(bs[i])
		}
		if av > bv {
			return 1
		}
		if av < bv {
			return -1
		}
	}
	return 0
}
