// Package web serves the download form as a server-rendered page. Each POST
// runs the dispatch controller once against a per-request view.
package web

import (
	"encoding/json"
	"log"
	"net/http"
	"slices"
	"time"

	"clipdrop/internal/config"
	"clipdrop/internal/dispatch"
	"clipdrop/internal/platform"
)

type Handler struct {
	sender            dispatch.Sender
	resolutions       []string
	defaultResolution string
	year              int
}

func NewHandler(cfg *config.Config, sender dispatch.Sender) *Handler {
	return &Handler{
		sender:            sender,
		resolutions:       cfg.Resolutions,
		defaultResolution: cfg.DefaultResolution,
		year:              time.Now().Year(),
	}
}

type DetectResponse struct {
	Platform platform.Platform `json:"platform"`
	Severity string            `json:"severity"`
	Class    string            `json:"class"`
	HTML     string            `json:"html"`
	Text     string            `json:"text"`
}

func (h *Handler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	view := newPageView("", h.defaultResolution)
	dispatch.New(view, h.sender, nil).Refresh()
	h.render(w, view)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	view := newPageView(r.PostFormValue("videoUrl"), h.resolution(r.PostFormValue("resolution")))
	ctrl := dispatch.New(view, h.sender, view)
	ctrl.Refresh()
	out := ctrl.Submit(r.Context())

	log.Printf("[WEB] Submit %q -> %s (sent=%v, http=%d)", view.url, out.Phase, out.Sent, out.HTTPCode)
	h.render(w, view)
}

func (h *Handler) Detect(w http.ResponseWriter, r *http.Request) {
	view := newPageView(r.URL.Query().Get("url"), h.defaultResolution)
	dispatch.New(view, h.sender, nil).Refresh()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(DetectResponse{
		Platform: view.active,
		Severity: string(view.status.Severity),
		Class:    view.status.Class(),
		HTML:     string(view.status.HTML()),
		Text:     view.status.Plain(),
	}); err != nil {
		log.Printf("[WEB] Failed to encode detect response: %v", err)
	}
}

// resolution keeps the submitted value only when it is one the form offers.
func (h *Handler) resolution(value string) string {
	if slices.Contains(h.resolutions, value) {
		return value
	}
	return h.defaultResolution
}

func (h *Handler) render(w http.ResponseWriter, view *pageView) {
	data := pageData{
		URL:            view.url,
		Resolutions:    h.resolutions,
		Resolution:     view.resolution,
		StatusClass:    view.status.Class(),
		StatusHTML:     view.status.HTML(),
		TriggerEnabled: view.triggerEnabled,
		OpenURL:        view.opened,
		Year:           h.year,
	}
	for _, p := range platform.Chips {
		data.Chips = append(data.Chips, chipView{
			ID:     string(p),
			Label:  p.Label(),
			Active: p == view.active,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		log.Printf("[WEB] Failed to render page: %v", err)
	}
}
