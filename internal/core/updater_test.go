package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
)

func newReleaseServer(t *testing.T, binary string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var downloads atomic.Int32
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/latest", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(GitHubRelease{
			TagName: "2025.01.01",
			Assets: []GitHubAsset{
				{Name: "yt-dlp.exe", BrowserDownloadURL: srv.URL + "/bin/windows"},
				{Name: "yt-dlp", BrowserDownloadURL: srv.URL + "/bin/linux"},
			},
		})
	})
	mux.HandleFunc("/bin/linux", func(w http.ResponseWriter, r *http.Request) {
		downloads.Add(1)
		w.Write([]byte(binary))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &downloads
}

func newTestUpdater(srv *httptest.Server, binPath string) *YtDlpUpdater {
	u := NewYtDlpUpdater(binPath)
	u.releaseURL = srv.URL + "/latest"
	u.goos = "linux"
	u.httpClient = srv.Client()
	return u
}

func TestUpdaterUpdate(t *testing.T) {
	srv, downloads := newReleaseServer(t, "#!/bin/sh\necho 2025.01.01\n")
	binPath := filepath.Join(t.TempDir(), "assets", "yt-dlp", "yt-dlp")
	u := newTestUpdater(srv, binPath)

	if err := u.Update(context.Background()); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	data, err := os.ReadFile(binPath)
	if err != nil {
		t.Fatalf("Expected binary to be installed: %v", err)
	}
	if string(data) != "#!/bin/sh\necho 2025.01.01\n" {
		t.Errorf("Unexpected binary contents: %q", data)
	}
	if downloads.Load() != 1 {
		t.Errorf("Expected one binary download, got %d", downloads.Load())
	}
	if runtime.GOOS != "windows" {
		info, _ := os.Stat(binPath)
		if info.Mode().Perm()&0100 == 0 {
			t.Error("Expected binary to be executable")
		}
	}
}

func TestUpdaterEnsureInstalledSkipsExisting(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on the executable bit")
	}
	srv, downloads := newReleaseServer(t, "new")
	binPath := filepath.Join(t.TempDir(), "yt-dlp")
	if err := os.WriteFile(binPath, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}

	downloaded, err := newTestUpdater(srv, binPath).EnsureInstalled(context.Background())
	if err != nil {
		t.Fatalf("EnsureInstalled() error = %v", err)
	}
	if downloaded || downloads.Load() != 0 {
		t.Error("Expected existing binary to be kept")
	}
}

func TestUpdaterEnsureInstalledDownloadsMissing(t *testing.T) {
	srv, downloads := newReleaseServer(t, "bin")
	binPath := filepath.Join(t.TempDir(), "yt-dlp")

	downloaded, err := newTestUpdater(srv, binPath).EnsureInstalled(context.Background())
	if err != nil {
		t.Fatalf("EnsureInstalled() error = %v", err)
	}
	if !downloaded || downloads.Load() != 1 {
		t.Errorf("Expected one download, got downloaded=%v count=%d", downloaded, downloads.Load())
	}
}

func TestUpdaterUnsupportedOS(t *testing.T) {
	srv, _ := newReleaseServer(t, "bin")
	u := newTestUpdater(srv, filepath.Join(t.TempDir(), "yt-dlp"))
	u.goos = "plan9"

	if err := u.Update(context.Background()); err == nil {
		t.Error("Expected error for unsupported OS")
	}
}

func TestCheckForUpdates(t *testing.T) {
	srv, _ := newReleaseServer(t, "bin")
	u := newTestUpdater(srv, filepath.Join(t.TempDir(), "yt-dlp"))

	info, err := u.CheckForUpdates(context.Background())
	if err != nil {
		t.Fatalf("CheckForUpdates() error = %v", err)
	}
	if info.LatestVersion != "2025.01.01" {
		t.Errorf("Expected latest version 2025.01.01, got %s", info.LatestVersion)
	}
	if info.CurrentVersion != "unknown" || info.UpdateAvailable {
		t.Errorf("Expected unknown current version without update flag, got %+v", info)
	}
}
