package core

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"clipdrop/internal/platform"
)

type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusDownloading JobStatus = "downloading"
	StatusReady       JobStatus = "ready"
	StatusFailed      JobStatus = "failed"
	StatusCancelled   JobStatus = "cancelled"
)

// Terminal reports whether a job in this status will not change again.
func (s JobStatus) Terminal() bool {
	return s == StatusReady || s == StatusFailed || s == StatusCancelled
}

// Request is what the backend is asked to fetch.
type Request struct {
	URL        string            `json:"url"`
	Resolution string            `json:"resolution"`
	FormatID   string            `json:"format_id,omitempty"`
	Platform   platform.Platform `json:"platform"`
	OutputDir  string            `json:"-"`
}

// Key identifies requests that produce the same file.
func (r Request) Key() string {
	return r.URL + "\x00" + r.Resolution + "\x00" + r.FormatID
}

type Progress struct {
	Percentage float64 `json:"percentage"`
	Speed      string  `json:"speed,omitempty"`
	ETA        string  `json:"eta,omitempty"`
	Size       string  `json:"size,omitempty"`
}

type Job struct {
	ID          string            `json:"id"`
	URL         string            `json:"url"`
	Resolution  string            `json:"resolution"`
	FormatID    string            `json:"format_id,omitempty"`
	Platform    platform.Platform `json:"platform"`
	Status      JobStatus         `json:"status"`
	Progress    Progress          `json:"progress"`
	Title       string            `json:"title,omitempty"`
	Filename    string            `json:"filename,omitempty"`
	OutputPath  string            `json:"output_path,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Error       string            `json:"error,omitempty"`
}

func NewJob(req Request) *Job {
	return &Job{
		ID:         NewJobID(),
		URL:        req.URL,
		Resolution: req.Resolution,
		FormatID:   req.FormatID,
		Platform:   req.Platform,
		Status:     StatusQueued,
		CreatedAt:  time.Now(),
	}
}

func (j *Job) Request() Request {
	return Request{
		URL:        j.URL,
		Resolution: j.Resolution,
		FormatID:   j.FormatID,
		Platform:   j.Platform,
	}
}

// DisplayName is the filename offered to the user when the file is served.
func (j *Job) DisplayName() string {
	ext := filepath.Ext(j.Filename)
	if j.Title == "" {
		return j.Filename
	}
	return SanitizeFilename(j.Title) + ext
}

func NewJobID() string {
	return uuid.NewString()
}

// Result describes a finished download on disk.
type Result struct {
	Title      string
	Filename   string
	OutputPath string
}
