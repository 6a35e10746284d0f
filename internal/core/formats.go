package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Format is one downloadable video format of a URL.
type Format struct {
	FormatID string `json:"format_id"`
	Label    string `json:"label"`
	Height   int    `json:"-"`
}

type ytDlpFormat struct {
	FormatID string   `json:"format_id"`
	Ext      string   `json:"ext"`
	VCodec   string   `json:"vcodec"`
	Height   *int     `json:"height"`
	FPS      *float64 `json:"fps"`
}

// ListFormats asks yt-dlp for the formats of url and keeps the mp4 ones
// that carry video, highest resolution first.
func (d *Downloader) ListFormats(ctx context.Context, url string) ([]Format, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.ytDlpPath,
		"--dump-single-json", "--skip-download", "--no-playlist", "--no-warnings", "--no-check-certificates", "--", url)
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("timeout listing formats for URL: %s", url)
		}
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("failed to list formats: %w", err)
	}

	return parseFormats(output)
}

func parseFormats(data []byte) ([]Format, error) {
	var info struct {
		Formats []ytDlpFormat `json:"formats"`
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}

	formats := make([]Format, 0, len(info.Formats))
	for _, f := range info.Formats {
		if f.VCodec == "none" || f.Ext != "mp4" {
			continue
		}

		var parts []string
		height := 0
		if f.Height != nil && *f.Height > 0 {
			height = *f.Height
			parts = append(parts, fmt.Sprintf("%dp", height))
		}
		if f.FPS != nil && *f.FPS > 0 {
			parts = append(parts, strconv.FormatFloat(*f.FPS, 'f', -1, 64)+"fps")
		}

		label := strings.Join(parts, " ")
		if label == "" {
			label = f.FormatID
		}
		formats = append(formats, Format{FormatID: f.FormatID, Label: label, Height: height})
	}

	sort.SliceStable(formats, func(i, j int) bool {
		return formats[i].Height > formats[j].Height
	})
	return formats, nil
}
