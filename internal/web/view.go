package web

import (
	"clipdrop/internal/platform"
	"clipdrop/internal/status"
)

// pageView collects what one request's controller run wants shown. It is
// used from a single handler goroutine and needs no locking. It is also the
// Opener: an opened link is rendered as a window.open call in the response.
type pageView struct {
	url            string
	resolution     string
	status         status.Message
	active         platform.Platform
	triggerEnabled bool
	opened         string
}

func newPageView(url, resolution string) *pageView {
	return &pageView{
		url:            url,
		resolution:     resolution,
		active:         platform.None,
		triggerEnabled: true,
	}
}

func (v *pageView) URL() string        { return v.url }
func (v *pageView) Resolution() string { return v.resolution }

func (v *pageView) SetStatus(msg status.Message)          { v.status = msg }
func (v *pageView) HighlightPlatform(p platform.Platform) { v.active = p }
func (v *pageView) SetTriggerEnabled(enabled bool)        { v.triggerEnabled = enabled }

func (v *pageView) Open(url string) error {
	v.opened = url
	return nil
}
