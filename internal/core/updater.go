package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const GitHubAPIURL = "https://api.github.com/repos/yt-dlp/yt-dlp/releases/latest"

type GitHubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

type GitHubRelease struct {
	TagName string        `json:"tag_name"`
	Assets  []GitHubAsset `json:"assets"`
}

type UpdateInfo struct {
	CurrentVersion  string    `json:"current_version"`
	LatestVersion   string    `json:"latest_version"`
	UpdateAvailable bool      `json:"update_available"`
	LastChecked     time.Time `json:"last_checked"`
}

// YtDlpUpdater fetches the yt-dlp release binary for this OS from GitHub.
type YtDlpUpdater struct {
	binPath    string
	releaseURL string
	goos       string
	httpClient *http.Client
}

func NewYtDlpUpdater(binPath string) *YtDlpUpdater {
	return &YtDlpUpdater{
		binPath:    binPath,
		releaseURL: GitHubAPIURL,
		goos:       runtime.GOOS,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// EnsureInstalled downloads yt-dlp when nothing runnable is found at the
// configured path. It reports whether a download happened.
func (u *YtDlpUpdater) EnsureInstalled(ctx context.Context) (bool, error) {
	if _, err := exec.LookPath(u.binPath); err == nil {
		return false, nil
	}
	if err := u.Update(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (u *YtDlpUpdater) GetCurrentVersion(ctx context.Context) (string, error) {
	if _, err := exec.LookPath(u.binPath); err != nil {
		return "", fmt.Errorf("yt-dlp binary not found at %s", u.binPath)
	}
	if v := ytDlpVersion(ctx, u.binPath); v != "" {
		return v, nil
	}
	return "unknown", nil
}

func (u *YtDlpUpdater) latestRelease(ctx context.Context) (*GitHubRelease, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.releaseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest release info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to parse GitHub API response: %w", err)
	}
	return &release, nil
}

func (u *YtDlpUpdater) CheckForUpdates(ctx context.Context) (*UpdateInfo, error) {
	currentVersion, err := u.GetCurrentVersion(ctx)
	if err != nil {
		currentVersion = "unknown"
	}

	release, err := u.latestRelease(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest version: %w", err)
	}

	return &UpdateInfo{
		CurrentVersion:  currentVersion,
		LatestVersion:   release.TagName,
		UpdateAvailable: currentVersion != release.TagName && currentVersion != "unknown",
		LastChecked:     time.Now(),
	}, nil
}

func (u *YtDlpUpdater) Update(ctx context.Context) error {
	release, err := u.latestRelease(ctx)
	if err != nil {
		return err
	}

	downloadURL, err := u.binaryURL(release.Assets)
	if err != nil {
		return fmt.Errorf("failed to find binary for current OS: %w", err)
	}

	tempFile, err := u.downloadBinary(ctx, downloadURL)
	if err != nil {
		return fmt.Errorf("failed to download binary: %w", err)
	}
	defer os.Remove(tempFile)

	if err := u.installBinary(tempFile); err != nil {
		return fmt.Errorf("failed to install binary: %w", err)
	}
	return nil
}

func (u *YtDlpUpdater) assetName() (string, error) {
	switch u.goos {
	case "windows":
		return "yt-dlp.exe", nil
	case "darwin":
		return "yt-dlp_macos", nil
	case "linux":
		return "yt-dlp", nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", u.goos)
	}
}

func (u *YtDlpUpdater) binaryURL(assets []GitHubAsset) (string, error) {
	targetName, err := u.assetName()
	if err != nil {
		return "", err
	}
	for _, asset := range assets {
		if asset.Name == targetName {
			return asset.BrowserDownloadURL, nil
		}
	}
	return "", fmt.Errorf("no binary found for OS: %s", u.goos)
}

func (u *YtDlpUpdater) downloadBinary(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(u.binPath), ".yt-dlp-update-*")
	if err != nil {
		tempFile, err = os.CreateTemp("", "yt-dlp-update-*")
		if err != nil {
			return "", fmt.Errorf("failed to create temp file: %w", err)
		}
	}
	defer tempFile.Close()

	if _, err := io.Copy(tempFile, resp.Body); err != nil {
		return "", fmt.Errorf("failed to write downloaded content: %w", err)
	}
	return tempFile.Name(), nil
}

func (u *YtDlpUpdater) installBinary(tempFile string) error {
	if err := os.MkdirAll(filepath.Dir(u.binPath), 0755); err != nil {
		return fmt.Errorf("failed to create binary directory: %w", err)
	}

	if _, err := os.Stat(u.binPath); err == nil {
		if err := os.Rename(u.binPath, u.binPath+".backup"); err != nil {
			return fmt.Errorf("failed to backup existing binary: %w", err)
		}
	}

	if err := copyFile(tempFile, u.binPath); err != nil {
		return fmt.Errorf("failed to copy binary to final location: %w", err)
	}

	if u.goos != "windows" && !strings.HasSuffix(u.binPath, ".exe") {
		if err := os.Chmod(u.binPath, 0755); err != nil {
			return fmt.Errorf("failed to make binary executable: %w", err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, sourceFile)
	return err
}
