package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ProgressFunc receives progress parsed from yt-dlp output.
type ProgressFunc func(Progress)

type Downloader struct {
	ytDlpPath  string
	ffmpegPath string
}

func NewDownloader(ytDlpPath, ffmpegPath string) *Downloader {
	return &Downloader{
		ytDlpPath:  ytDlpPath,
		ffmpegPath: ffmpegPath,
	}
}

// Download runs yt-dlp for one job. The output file is named after jobID so
// it can be located afterwards regardless of the video title.
func (d *Downloader) Download(ctx context.Context, req Request, jobID string, onProgress ProgressFunc) (*Result, error) {
	log.Printf("[DOWNLOAD] %s: Starting - %s (%s, platform=%s)", jobID, req.URL, req.Resolution, req.Platform)

	binary, err := exec.LookPath(d.ytDlpPath)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp binary not found at %s: %w", d.ytDlpPath, err)
	}
	// The command runs inside the output directory.
	if abs, err := filepath.Abs(binary); err == nil {
		binary = abs
	}

	result := &Result{}
	if info, err := d.GetVideoInfo(ctx, req.URL); err != nil {
		log.Printf("[DOWNLOAD] %s: Could not get video info, continuing without title", jobID)
	} else {
		result.Title = info.Title
		log.Printf("[DOWNLOAD] %s: Title identified - %s", jobID, info.Title)
	}

	args := d.buildYtDlpArgs(req, jobID)
	log.Printf("[DOWNLOAD] %s: yt-dlp command: %s %s", jobID, binary, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = req.OutputDir
	setupProcessGroup(cmd, jobID)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start yt-dlp: %w", err)
	}
	log.Printf("[DOWNLOAD] %s: yt-dlp process started, PID: %d", jobID, cmd.Process.Pid)

	tail := &lineTail{max: 20}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		monitorProgress(stdout, jobID, onProgress)
	}()
	go func() {
		defer wg.Done()
		tail.consume(stderr, jobID)
	}()
	// Pipes must be drained before Wait closes them.
	wg.Wait()
	err = cmd.Wait()

	if errors.Is(ctx.Err(), context.Canceled) {
		log.Printf("[DOWNLOAD] %s: Cancelled", jobID)
		return nil, ctx.Err()
	}
	if err != nil {
		msg := categorizeError(fmt.Errorf("%w: %s", err, tail.String()))
		log.Printf("[DOWNLOAD] %s: yt-dlp failed: %v (%s)", jobID, err, msg)
		return nil, errors.New(msg)
	}

	outputPath := findOutputFile(req.OutputDir, jobID)
	if outputPath == "" {
		return nil, fmt.Errorf("download finished but no output file was found in %s", req.OutputDir)
	}
	result.OutputPath = outputPath
	result.Filename = filepath.Base(outputPath)
	if result.Title == "" {
		result.Title = strings.TrimSuffix(result.Filename, filepath.Ext(result.Filename))
	}

	log.Printf("[DOWNLOAD] %s: Completed - %s", jobID, result.Filename)
	return result, nil
}

func (d *Downloader) buildYtDlpArgs(req Request, jobID string) []string {
	args := []string{
		"--no-playlist",
		"--progress",
		"--newline",
		"--no-warnings",
		"--no-check-certificates",
		"--continue",
		"--format", formatSelector(req.Resolution, req.FormatID),
		"--merge-output-format", "mp4",
		"--output", jobID + ".%(ext)s",
	}

	// Add ffmpeg path if configured and not default
	if d.ffmpegPath != "" && d.ffmpegPath != "ffmpeg" && d.ffmpegPath != "ffmpeg.exe" {
		args = append(args, "--ffmpeg-location", d.ffmpegPath)
	}

	// "--" keeps a caller-supplied URL from being read as an option.
	return append(args, "--", req.URL)
}

var namedHeights = map[string]int{
	"4K": 2160,
	"2K": 1440,
}

// formatSelector turns a resolution choice into a yt-dlp format expression.
// An explicit format id from the formats listing wins.
func formatSelector(resolution, formatID string) string {
	if formatID != "" {
		// Video-only formats still need an audio track merged in.
		return formatID + "+bestaudio/" + formatID
	}

	height := namedHeights[resolution]
	if height == 0 && strings.HasSuffix(resolution, "p") {
		height, _ = strconv.Atoi(strings.TrimSuffix(resolution, "p"))
	}

	switch {
	case resolution == "worst":
		return "worstvideo+worstaudio/worst"
	case height > 0:
		return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", height, height)
	default:
		return "bestvideo+bestaudio/best"
	}
}

// findOutputFile returns the finished file named after jobID, skipping
// yt-dlp's partial and intermediate files.
func findOutputFile(dir, jobID string) string {
	matches, err := filepath.Glob(filepath.Join(dir, jobID+".*"))
	if err != nil {
		return ""
	}

	var best string
	var bestMod time.Time
	for _, m := range matches {
		if isPartialFile(filepath.Base(m)) {
			continue
		}
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		if best == "" || info.ModTime().After(bestMod) {
			best, bestMod = m, info.ModTime()
		}
	}
	return best
}

var formatFragment = regexp.MustCompile(`\.f\d+\.[a-z0-9]+$`)

func isPartialFile(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range []string{".part", ".ytdl", ".temp", ".tmp"} {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return formatFragment.MatchString(lower)
}

// categorizeError provides user-friendly error messages based on the error type
func categorizeError(err error) string {
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "video unavailable"):
		return "Video is unavailable or has been removed"
	case strings.Contains(errStr, "private video"):
		return "Video is private and cannot be downloaded"
	case strings.Contains(errStr, "age-restricted") || strings.Contains(errStr, "sign in to confirm your age"):
		return "Video is age-restricted and requires authentication"
	case strings.Contains(errStr, "not available in your country"):
		return "Video is not available in your region"
	case strings.Contains(errStr, "unsupported url"):
		return "This website or URL format is not supported"
	case strings.Contains(errStr, "requested format is not available"):
		return "Requested quality or format is not available for this video"
	case strings.Contains(errStr, "login") || strings.Contains(errStr, "cookies"):
		return "Video requires login or authentication"
	case strings.Contains(errStr, "too many requests") || strings.Contains(errStr, "http error 429"):
		return "Too many requests - please wait and try again"
	case strings.Contains(errStr, "http error 404"):
		return "Video not found (404 error)"
	case strings.Contains(errStr, "http error 403"):
		return "Access forbidden (403 error) - video may require authentication"
	case strings.Contains(errStr, "no space left"):
		return "Insufficient disk space to complete download"
	case strings.Contains(errStr, "permission denied"):
		return "Permission denied - check file/directory permissions"
	case strings.Contains(errStr, "executable file not found"):
		return "yt-dlp or ffmpeg executable not found - please check installation"
	case strings.Contains(errStr, "ffmpeg") || strings.Contains(errStr, "postprocessing"):
		return "FFmpeg processing failed - video conversion error"
	case strings.Contains(errStr, "timed out") || strings.Contains(errStr, "deadline exceeded"):
		return "Download timed out - the server may be slow or overloaded"
	case strings.Contains(errStr, "network") || strings.Contains(errStr, "connection"):
		return "Network connection issue - please check your internet connection"
	default:
		if len(errStr) > 200 {
			return fmt.Sprintf("Download failed: %s...", errStr[:200])
		}
		return fmt.Sprintf("Download failed: %s", err.Error())
	}
}

var progressRegexes = []*regexp.Regexp{
	// [download]   0.0% of   11.21MiB at    2.47MiB/s ETA 00:04
	// [download]   0.0% of ~  11.21MiB at    2.47MiB/s ETA 00:04
	regexp.MustCompile(`\[download\]\s+(\d+\.?\d*)%\s+of\s+~?\s*(\S+)\s+at\s+(\S+)\s+ETA\s+(\S+)`),
	// [download]   0.0% of unknown size at    2.47MiB/s ETA Unknown
	regexp.MustCompile(`\[download\]\s+(\d+\.?\d*)%\s+of\s+(.+?)\s+at\s+(\S+)\s+ETA\s+(\S+)`),
	// [download] 100% of   11.21MiB in 00:04
	regexp.MustCompile(`\[download\]\s+(\d+\.?\d*)%\s+of\s+~?\s*(\S+)\s+in\s+(\S+)`),
}

// parseProgressLine extracts progress from one line of yt-dlp --newline output.
func parseProgressLine(line string) (Progress, bool) {
	for i, re := range progressRegexes {
		matches := re.FindStringSubmatch(line)
		if matches == nil {
			continue
		}
		percentage, _ := strconv.ParseFloat(matches[1], 64)
		p := Progress{Percentage: percentage, Size: matches[2]}
		if i < 2 {
			p.Speed = matches[3]
			p.ETA = matches[4]
		}
		return p, true
	}
	return Progress{}, false
}

func monitorProgress(stdout io.Reader, jobID string, onProgress ProgressFunc) {
	lastLogged := -1.0
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		p, ok := parseProgressLine(scanner.Text())
		if !ok {
			continue
		}
		// Only log progress at 25% intervals to reduce noise
		if p.Percentage >= lastLogged+25 || p.Percentage == 100 {
			log.Printf("[DOWNLOAD] %s: Progress %.0f%%", jobID, p.Percentage)
			lastLogged = p.Percentage
		}
		if onProgress != nil {
			onProgress(p)
		}
	}
}

// lineTail keeps the last max lines written to stderr for error reporting.
type lineTail struct {
	mu    sync.Mutex
	max   int
	lines []string
}

func (t *lineTail) consume(r io.Reader, jobID string) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		lower := strings.ToLower(line)
		if strings.Contains(lower, "error") || strings.Contains(lower, "warning") {
			log.Printf("[DOWNLOAD] %s: %s", jobID, line)
		}
		t.mu.Lock()
		t.lines = append(t.lines, line)
		if len(t.lines) > t.max {
			t.lines = t.lines[len(t.lines)-t.max:]
		}
		t.mu.Unlock()
	}
}

func (t *lineTail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "\n")
}

type VideoInfo struct {
	Title    string
	Filename string
}

func (d *Downloader) GetVideoInfo(ctx context.Context, url string) (*VideoInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.ytDlpPath, "--get-title", "--get-filename", "--no-warnings", "--no-playlist", "--", url)
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("timeout getting video info for URL: %s", url)
		}
		return nil, fmt.Errorf("failed to get video info: %w", err)
	}

	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) < 2 {
		return nil, fmt.Errorf("unexpected output format from yt-dlp")
	}

	return &VideoInfo{
		Title:    lines[0],
		Filename: lines[1],
	}, nil
}
