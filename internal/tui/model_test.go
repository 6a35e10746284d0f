package tui

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"clipdrop/internal/client"
	"clipdrop/internal/dispatch"
	"clipdrop/internal/opener"
	"clipdrop/internal/platform"
	"clipdrop/internal/status"
)

var testResolutions = []string{"best", "1080p", "720p", "480p"}

func newTestModel(t *testing.T, handler http.HandlerFunc, open func(string) error) Model {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	if open == nil {
		open = func(string) error { return nil }
	}
	return New(context.Background(), client.New(srv.URL), opener.Func(open), testResolutions, "720p")
}

func typeText(m Model, text string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Model)
}

func press(m Model, key tea.KeyType) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: key})
	return next.(Model), cmd
}

// runCmd executes cmd and any batched commands, returning the produced messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, runCmd(c)...)
		}
		return msgs
	}
	return []tea.Msg{msg}
}

// finishSubmit runs the submit command and feeds its result back to the model.
func finishSubmit(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range runCmd(cmd) {
		if done, ok := msg.(submitDoneMsg); ok {
			next, _ := m.Update(done)
			return next.(Model)
		}
	}
	t.Fatal("submit command did not produce a result")
	return m
}

func TestNewModelInitialState(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {}, nil)

	if got := m.form.Resolution(); got != "720p" {
		t.Errorf("Expected default resolution 720p, got %s", got)
	}
	if !m.Status().Contains("Paste a link to auto-detect the platform.") {
		t.Errorf("Unexpected initial status: %q", m.Status().Plain())
	}

	view := m.View()
	for _, want := range []string{"Video URL", "Resolution", "YouTube", "Facebook", "TikTok", "Download", fmt.Sprintf("© %d", time.Now().Year())} {
		if !strings.Contains(view, want) {
			t.Errorf("View missing %q", want)
		}
	}
}

func TestTypingRefreshesPlatform(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {}, nil)

	m = typeText(m, "https://youtu.be/abc")

	snap := m.form.snapshot()
	if snap.Active != platform.YouTube {
		t.Errorf("Expected youtube chip, got %s", snap.Active)
	}
	if snap.Status.Severity != status.OK || !snap.Status.Contains("Detected platform: YouTube") {
		t.Errorf("Unexpected status: %q", snap.Status.Plain())
	}
}

func TestTypingInvalidURL(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {}, nil)

	m = typeText(m, "youtube.com/watch")

	snap := m.form.snapshot()
	if snap.Active != platform.None {
		t.Errorf("Expected no chip, got %s", snap.Active)
	}
	if snap.Status.Severity != status.Error {
		t.Errorf("Expected error severity, got %s", snap.Status.Severity)
	}
}

func TestBlurRefreshes(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {}, nil)
	m = typeText(m, "https://example.com/v")
	m.form.SetStatus(status.Message{})

	m, _ = press(m, tea.KeyTab)

	if m.focus != focusResolution {
		t.Errorf("Expected focus on resolution, got %d", m.focus)
	}
	if !m.Status().Contains("platform is unknown") {
		t.Errorf("Expected blur to refresh status, got %q", m.Status().Plain())
	}
}

func TestResolutionCycling(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {}, nil)
	m, _ = press(m, tea.KeyTab)

	m, _ = press(m, tea.KeyRight)
	if got := m.form.Resolution(); got != "480p" {
		t.Errorf("Expected 480p, got %s", got)
	}
	m, _ = press(m, tea.KeyRight)
	if got := m.form.Resolution(); got != "best" {
		t.Errorf("Expected wrap to best, got %s", got)
	}
	m, _ = press(m, tea.KeyLeft)
	if got := m.form.Resolution(); got != "480p" {
		t.Errorf("Expected 480p, got %s", got)
	}
}

func TestSubmitReadyOpensLink(t *testing.T) {
	contentType := make(chan string, 1)
	var opened []string
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		contentType <- r.Header.Get("Content-Type")
		w.Write([]byte(`{"status":"ready","downloadUrl":"https://cdn.example/v.mp4"}`))
	}, func(url string) error {
		opened = append(opened, url)
		return nil
	})

	m = typeText(m, "https://www.tiktok.com/@a/video/1")
	m, cmd := press(m, tea.KeyEnter)
	if !m.busy {
		t.Fatal("Expected model to be busy after enter")
	}
	m = finishSubmit(t, m, cmd)

	if m.busy {
		t.Error("Expected busy to clear after submit")
	}
	select {
	case ct := <-contentType:
		if ct != "application/json" {
			t.Errorf("Expected JSON content type, got %q", ct)
		}
	default:
		t.Error("Expected one request to reach the backend")
	}
	if len(opened) != 1 || opened[0] != "https://cdn.example/v.mp4" {
		t.Errorf("Expected one open of the download URL, got %v", opened)
	}
	out, ok := m.LastOutcome()
	if !ok || out.Phase != dispatch.Success || out.Request.Platform != platform.TikTok {
		t.Errorf("Unexpected outcome: %+v", out)
	}
	if !m.form.snapshot().TriggerEnabled {
		t.Error("Expected trigger re-enabled")
	}
	if !strings.Contains(m.View(), "https://cdn.example/v.mp4") {
		t.Error("Expected download link in view")
	}
}

func TestSubmitEmptyDoesNotSend(t *testing.T) {
	hits := 0
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) { hits++ }, nil)

	m, cmd := press(m, tea.KeyEnter)
	m = finishSubmit(t, m, cmd)

	if hits != 0 {
		t.Errorf("Expected no request, got %d", hits)
	}
	if !m.Status().Contains("Please paste a video URL first.") {
		t.Errorf("Unexpected status: %q", m.Status().Plain())
	}
	if out, _ := m.LastOutcome(); out.Sent {
		t.Error("Expected Sent = false")
	}
}

func TestEnterIgnoredWhileBusy(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {}, nil)
	m = typeText(m, "https://youtu.be/x")

	m, first := press(m, tea.KeyEnter)
	if first == nil {
		t.Fatal("Expected submit command")
	}
	_, second := press(m, tea.KeyEnter)
	if second != nil {
		t.Error("Expected second enter to be ignored while busy")
	}
}

func TestQuitKeys(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {}, nil)
	_, cmd := press(m, tea.KeyCtrlC)
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}
