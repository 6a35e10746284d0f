package tui

import (
	"sync"

	"clipdrop/internal/platform"
	"clipdrop/internal/status"
)

// formState is the part of the screen the dispatch controller writes to.
// Submit runs inside a tea.Cmd, off the program's event loop, so every
// access goes through mu.
type formState struct {
	mu             sync.Mutex
	url            string
	resolution     string
	status         status.Message
	active         platform.Platform
	triggerEnabled bool
}

type formSnapshot struct {
	URL            string
	Resolution     string
	Status         status.Message
	Active         platform.Platform
	TriggerEnabled bool
}

func newFormState(resolution string) *formState {
	return &formState{
		resolution:     resolution,
		active:         platform.None,
		triggerEnabled: true,
	}
}

func (f *formState) URL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url
}

func (f *formState) Resolution() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resolution
}

func (f *formState) SetStatus(msg status.Message) {
	f.mu.Lock()
	f.status = msg
	f.mu.Unlock()
}

func (f *formState) HighlightPlatform(p platform.Platform) {
	f.mu.Lock()
	f.active = p
	f.mu.Unlock()
}

func (f *formState) SetTriggerEnabled(enabled bool) {
	f.mu.Lock()
	f.triggerEnabled = enabled
	f.mu.Unlock()
}

func (f *formState) setURL(url string) {
	f.mu.Lock()
	f.url = url
	f.mu.Unlock()
}

func (f *formState) setResolution(resolution string) {
	f.mu.Lock()
	f.resolution = resolution
	f.mu.Unlock()
}

func (f *formState) snapshot() formSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return formSnapshot{
		URL:            f.url,
		Resolution:     f.resolution,
		Status:         f.status,
		Active:         f.active,
		TriggerEnabled: f.triggerEnabled,
	}
}
