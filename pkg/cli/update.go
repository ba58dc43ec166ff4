package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
)

// Repo is the GitHub repository releases are published to.
const Repo = "Fepozopo/stdcontrast"

// Version is the running build's version, set with -ldflags at release time.
var Version = "0.0.0-dev"

type githubRelease struct {
	TagName    string `json:"tag_name"`
	Name       string `json:"name"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
	Assets     []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

var semverRe = regexp.MustCompile(`v?\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?`)

// fetchReleases queries the GitHub Releases API for repo.
func fetchReleases(ctx context.Context, client *http.Client, repo string) ([]githubRelease, error) {
	apiURL := fmt.Sprintf("https://api.github.com/repos/%s/releases", repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading github response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github API returned status %d: %s", resp.StatusCode, string(body))
	}

	var releases []githubRelease
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, fmt.Errorf("failed to decode github releases: %w", err)
	}
	return releases, nil
}

// pickLatest returns the highest published, non-prerelease release whose tag
// or name carries a semver, or nil when there is none.
func pickLatest(releases []githubRelease) *selfupdate.Release {
	type candidate struct {
		ver      semver.Version
		assetURL string
	}
	var candidates []candidate
	for _, r := range releases {
		if r.Draft || r.Prerelease {
			continue
		}
		match := semverRe.FindString(r.TagName)
		if match == "" {
			match = semverRe.FindString(r.Name)
		}
		if match == "" {
			continue
		}
		v, err := semver.Parse(strings.TrimPrefix(match, "v"))
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{ver: v, assetURL: pickAsset(r)})
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ver.GT(candidates[j].ver)
	})
	return &selfupdate.Release{
		Version:  candidates[0].ver,
		AssetURL: candidates[0].assetURL,
	}
}

// pickAsset prefers assets that look like platform binaries, falling back to
// the first one.
func pickAsset(r githubRelease) string {
	url := ""
	for _, a := range r.Assets {
		name := strings.ToLower(a.Name)
		for _, hint := range []string{"darwin", "linux", "windows", "amd64", "arm64"} {
			if strings.Contains(name, hint) {
				return a.BrowserDownloadURL
			}
		}
		if url == "" {
			url = a.BrowserDownloadURL
		}
	}
	return url
}

// Updater checks GitHub for a newer release and replaces the running binary
// after confirmation.
type Updater struct {
	In      io.Reader
	Out     io.Writer
	Client  *http.Client
	Current string
	// Apply replaces the binary with the asset; defaults to selfupdate.UpdateTo.
	Apply func(assetURL, exe string) error
}

// Check runs the update flow once.
func (u Updater) Check(ctx context.Context) error {
	out := u.Out
	if out == nil {
		out = os.Stdout
	}
	client := u.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	current := u.Current
	if current == "" {
		current = Version
	}

	fmt.Fprintf(out, "Current version: %s\n", current)
	releases, err := fetchReleases(ctx, client, Repo)
	if err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}
	latest := pickLatest(releases)
	if latest == nil {
		fmt.Fprintf(out, "No releases found for %s.\n", Repo)
		return nil
	}
	return u.offer(out, current, latest)
}

func (u Updater) offer(out io.Writer, current string, latest *selfupdate.Release) error {
	fmt.Fprintf(out, "Latest version: %s\n", latest.Version)

	currentVer, err := semver.Parse(strings.TrimPrefix(current, "v"))
	if err != nil {
		fmt.Fprintf(out, "warning: could not parse current version %q: %v\n", current, err)
	} else if !latest.Version.GT(currentVer) {
		fmt.Fprintf(out, "You are already running the latest version: %s.\n", currentVer)
		return nil
	}

	if latest.AssetURL == "" {
		fmt.Fprintf(out, "A new version (%s) is available but there is no downloadable asset.\n", latest.Version)
		fmt.Fprintln(out, "Please visit the project releases page to download the new version.")
		return nil
	}

	in := u.In
	if in == nil {
		in = os.Stdin
	}
	fmt.Fprintf(out, "A new version (%s) is available. Update now? (y/N): ", latest.Version)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed reading input: %w", err)
	}
	answer = strings.TrimSpace(strings.ToLower(answer))
	if answer != "y" && answer != "yes" {
		fmt.Fprintln(out, "Update cancelled.")
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not locate executable: %w", err)
	}
	apply := u.Apply
	if apply == nil {
		apply = selfupdate.UpdateTo
	}
	fmt.Fprintln(out, "Updating...")
	if err := apply(latest.AssetURL, exe); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	fmt.Fprintf(out, "Updated to version %s. Restart to use it.\n", latest.Version)
	return nil
}
