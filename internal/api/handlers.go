// Package api is the HTTP surface of the download backend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gorilla/mux"

	"clipdrop/internal/config"
	"clipdrop/internal/core"
	"clipdrop/internal/manager"
	"clipdrop/internal/platform"
)

// FormatLister lists the downloadable formats of a video. *core.Downloader
// implements it.
type FormatLister interface {
	ListFormats(ctx context.Context, url string) ([]core.Format, error)
}

type Handler struct {
	config  *config.Config
	jobs    *manager.JobManager
	formats FormatLister
	updater *core.YtDlpUpdater
}

func NewHandler(cfg *config.Config, jobs *manager.JobManager, formats FormatLister, updater *core.YtDlpUpdater) *Handler {
	return &Handler{
		config:  cfg,
		jobs:    jobs,
		formats: formats,
		updater: updater,
	}
}

// JobReply is the body of every job-related response. The client reads
// status, downloadUrl and message.
type JobReply struct {
	Status      string         `json:"status"`
	JobID       string         `json:"jobId,omitempty"`
	DownloadURL string         `json:"downloadUrl,omitempty"`
	Message     string         `json:"message,omitempty"`
	Platform    string         `json:"platform,omitempty"`
	Progress    *core.Progress `json:"progress,omitempty"`
}

type submitRequest struct {
	VideoURL   string `json:"videoUrl"`
	Resolution string `json:"resolution"`
	Platform   string `json:"platform"`
}

const (
	msgQueued    = "Request queued for download."
	msgCancelled = "Request was cancelled."
)

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "clipdrop download API",
	})
}

func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var body submitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Printf("[API] SubmitRequest: Invalid JSON: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	videoURL := strings.TrimSpace(body.VideoURL)
	if videoURL == "" {
		writeError(w, http.StatusBadRequest, "videoUrl is required")
		return
	}
	if !platform.LooksLikeURL(videoURL) {
		writeError(w, http.StatusBadRequest, "videoUrl is not a valid URL")
		return
	}

	// The platform sent by the client is advisory only.
	detected := platform.Detect(videoURL)
	if claimed, ok := platform.Parse(body.Platform); ok && claimed != detected {
		log.Printf("[API] SubmitRequest: client claimed %s, detected %s", claimed, detected)
	}

	resolution := strings.TrimSpace(body.Resolution)
	if resolution == "" {
		resolution = h.config.DefaultResolution
	}

	log.Printf("[API] SubmitRequest: URL=%s, Resolution=%s, Platform=%s", videoURL, resolution, detected)

	job, _, err := h.jobs.Submit(core.Request{
		URL:        videoURL,
		Resolution: resolution,
		Platform:   detected,
	})
	if err != nil {
		h.submitFailed(w, err)
		return
	}

	reply := h.replyFor(r, job)
	if reply.Status != string(core.StatusReady) {
		reply = JobReply{
			Status:   string(core.StatusQueued),
			JobID:    job.ID,
			Message:  msgQueued,
			Platform: detected.String(),
		}
	}
	writeJSON(w, http.StatusOK, reply)
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	job, ok := h.jobs.Get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "Request not found")
		return
	}
	writeJSON(w, http.StatusOK, h.replyFor(r, job))
}

func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.jobs.Cancel(id); err != nil {
		if errors.Is(err, manager.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Request not found")
			return
		}
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	job, _ := h.jobs.Get(id)
	writeJSON(w, http.StatusOK, h.replyFor(r, job))
}

// replyFor renders a job snapshot. Ready jobs carry an absolute download
// link.
func (h *Handler) replyFor(r *http.Request, job core.Job) JobReply {
	reply := JobReply{
		Status:   string(job.Status),
		JobID:    job.ID,
		Platform: job.Platform.String(),
	}

	switch job.Status {
	case core.StatusReady:
		reply.DownloadURL = h.baseURL(r) + filePath(job.Filename)
	case core.StatusFailed:
		reply.Message = job.Error
	case core.StatusCancelled:
		reply.Message = msgCancelled
	default:
		progress := job.Progress
		reply.Progress = &progress
		reply.Message = msgQueued
	}
	return reply
}

// baseURL is the configured public address, or the one the request arrived
// on.
func (h *Handler) baseURL(r *http.Request) string {
	if h.config.PublicBaseURL != "" {
		return strings.TrimRight(h.config.PublicBaseURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

func filePath(name string) string {
	return "/files/" + url.PathEscape(name)
}

func (h *Handler) submitFailed(w http.ResponseWriter, err error) {
	log.Printf("[API] Failed to queue job: %v", err)
	if errors.Is(err, manager.ErrQueueFull) {
		writeError(w, http.StatusServiceUnavailable, "The server is busy, please try again later.")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (h *Handler) GetFormats(w http.ResponseWriter, r *http.Request) {
	videoURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if videoURL == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}
	if !platform.LooksLikeURL(videoURL) {
		writeError(w, http.StatusBadRequest, "url is not a valid URL")
		return
	}

	formats, err := h.formats.ListFormats(r.Context(), videoURL)
	if err != nil {
		log.Printf("[API] GetFormats: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if formats == nil {
		formats = []core.Format{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"formats": formats})
}

// Download queues a job for one exact format and holds the request open
// until it finishes.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	videoURL := strings.TrimSpace(query.Get("url"))
	formatID := strings.TrimSpace(query.Get("format_id"))
	if videoURL == "" || formatID == "" {
		writeError(w, http.StatusBadRequest, "Missing url or format_id")
		return
	}
	if !platform.LooksLikeURL(videoURL) {
		writeError(w, http.StatusBadRequest, "url is not a valid URL")
		return
	}

	job, _, err := h.jobs.Submit(core.Request{
		URL:        videoURL,
		Resolution: "best",
		FormatID:   formatID,
		Platform:   platform.Detect(videoURL),
	})
	if err != nil {
		h.submitFailed(w, err)
		return
	}

	done, err := h.jobs.Wait(r.Context(), job.ID)
	if errors.Is(err, manager.ErrShuttingDown) {
		writeError(w, http.StatusServiceUnavailable, "The server is shutting down, please try again later.")
		return
	}
	if err != nil {
		log.Printf("[API] Download: gave up waiting for %s: %v", job.ID, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch done.Status {
	case core.StatusReady:
		writeJSON(w, http.StatusOK, map[string]string{
			"download_url": filePath(done.Filename),
			"filename":     done.Filename,
		})
	case core.StatusCancelled:
		writeError(w, http.StatusInternalServerError, msgCancelled)
	default:
		writeError(w, http.StatusInternalServerError, done.Error)
	}
}

func (h *Handler) ServeFile(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if !core.IsSafeFilename(name) {
		writeError(w, http.StatusBadRequest, "Invalid file name")
		return
	}

	job, ok := h.jobs.FilePath(name)
	if !ok {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	if _, err := os.Stat(job.OutputPath); err != nil {
		log.Printf("[API] ServeFile: %s is gone: %v", job.OutputPath, err)
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": job.DisplayName()})
	w.Header().Set("Content-Disposition", disposition)
	http.ServeFile(w, r, job.OutputPath)
}

func (h *Handler) GetVersions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.GetVersionInfo(r.Context(), h.config.YtDlpPath, h.config.FfmpegPath))
}

func (h *Handler) GetUpdateInfo(w http.ResponseWriter, r *http.Request) {
	if h.updater == nil {
		writeError(w, http.StatusServiceUnavailable, "Updater not available")
		return
	}
	info, err := h.updater.CheckForUpdates(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) UpdateYtDlp(w http.ResponseWriter, r *http.Request) {
	if h.updater == nil {
		writeError(w, http.StatusServiceUnavailable, "Updater not available")
		return
	}
	if err := h.updater.Update(r.Context()); err != nil {
		log.Printf("[API] yt-dlp update failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "yt-dlp updated"})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"status": "error", "message": message})
}
