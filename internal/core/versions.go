package core

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

type VersionInfo struct {
	YtDlpVersion  string `json:"yt_dlp"`
	FfmpegVersion string `json:"ffmpeg"`
}

var ffmpegVersionRe = regexp.MustCompile(`ffmpeg version ([^\s]+)`)

// GetVersionInfo probes the configured binaries, falling back to the ones on
// PATH. Missing tools leave their field empty.
func GetVersionInfo(ctx context.Context, ytdlpPath, ffmpegPath string) *VersionInfo {
	return &VersionInfo{
		YtDlpVersion:  firstVersion(ctx, ytDlpVersion, ytdlpPath, "yt-dlp"),
		FfmpegVersion: firstVersion(ctx, ffmpegVersion, ffmpegPath, "ffmpeg"),
	}
}

func firstVersion(ctx context.Context, probe func(context.Context, string) string, paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if v := probe(ctx, p); v != "" {
			return v
		}
	}
	return ""
}

func ytDlpVersion(ctx context.Context, path string) string {
	output, err := runVersion(ctx, path, "--version")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(output)
}

func ffmpegVersion(ctx context.Context, path string) string {
	output, err := runVersion(ctx, path, "-version")
	if err != nil {
		return ""
	}
	if matches := ffmpegVersionRe.FindStringSubmatch(output); len(matches) > 1 {
		return matches[1]
	}
	return ""
}

func runVersion(ctx context.Context, path, flag string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	output, err := exec.CommandContext(ctx, path, flag).Output()
	return string(output), err
}

func CheckFfmpegAvailable(ctx context.Context, path string) bool {
	return firstVersion(ctx, ffmpegVersion, path, "ffmpeg") != ""
}
