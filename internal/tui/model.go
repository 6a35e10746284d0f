// Package tui is the terminal front-end: a single form with a URL field, a
// resolution selector and a download trigger, driven by dispatch.Controller.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"clipdrop/internal/dispatch"
	"clipdrop/internal/status"
)

type focusField int

const (
	focusURL focusField = iota
	focusResolution
	focusButton
	focusCount
)

// submitDoneMsg carries the result of a Submit run back to the event loop.
type submitDoneMsg struct {
	outcome dispatch.Outcome
}

// Model implements tea.Model
type Model struct {
	ctx  context.Context
	form *formState
	ctrl *dispatch.Controller

	input   textinput.Model
	spinner spinner.Model

	resolutions []string
	resIndex    int
	focus       focusField
	busy        bool
	last        *dispatch.Outcome

	year  int
	width int
}

// New builds the form. resolutions is the selectable set; defaultResolution
// is preselected when it is part of that set.
func New(ctx context.Context, sender dispatch.Sender, opener dispatch.Opener, resolutions []string, defaultResolution string) Model {
	if len(resolutions) == 0 {
		resolutions = []string{"best"}
	}
	resIndex := 0
	for i, r := range resolutions {
		if r == defaultResolution {
			resIndex = i
			break
		}
	}

	form := newFormState(resolutions[resIndex])
	ctrl := dispatch.New(form, sender, opener)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	ti := textinput.New()
	ti.Placeholder = "https://www.youtube.com/watch?v=…"
	ti.Prompt = "› "
	ti.Width = 56
	ti.Focus()

	m := Model{
		ctx:         ctx,
		form:        form,
		ctrl:        ctrl,
		input:       ti,
		spinner:     s,
		resolutions: resolutions,
		resIndex:    resIndex,
		year:        time.Now().Year(),
	}
	ctrl.Refresh()
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case submitDoneMsg:
		m.busy = false
		out := msg.outcome
		m.last = &out
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "down":
			return m.moveFocus(1), nil
		case "shift+tab", "up":
			return m.moveFocus(-1), nil
		case "enter":
			return m.submit()
		}

		switch m.focus {
		case focusURL:
			return m.updateInput(msg)
		case focusResolution:
			switch msg.String() {
			case "left", "h":
				return m.cycleResolution(-1), nil
			case "right", "l", " ":
				return m.cycleResolution(1), nil
			}
		case focusButton:
			if msg.String() == " " {
				return m.submit()
			}
		}
		return m, nil
	}

	if m.focus == focusURL {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != m.form.URL() {
		m.form.setURL(value)
		m.ctrl.Refresh()
	}
	return m, cmd
}

func (m Model) moveFocus(delta int) Model {
	next := focusField((int(m.focus) + delta + int(focusCount)) % int(focusCount))
	if m.focus == focusURL && next != focusURL {
		// blur
		m.input.Blur()
		m.ctrl.Refresh()
	}
	if next == focusURL {
		m.input.Focus()
	}
	m.focus = next
	return m
}

func (m Model) cycleResolution(delta int) Model {
	n := len(m.resolutions)
	m.resIndex = (m.resIndex + delta + n) % n
	m.form.setResolution(m.resolutions[m.resIndex])
	return m
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.busy || !m.form.snapshot().TriggerEnabled {
		return m, nil
	}
	m.busy = true
	ctx, ctrl := m.ctx, m.ctrl
	run := func() tea.Msg {
		return submitDoneMsg{outcome: ctrl.Submit(ctx)}
	}
	return m, tea.Batch(run, m.spinner.Tick)
}

// View implements tea.Model
func (m Model) View() string {
	snap := m.form.snapshot()
	var b strings.Builder

	b.WriteString(headerStyle.Render("clipdrop"))
	b.WriteString("\n\n")

	b.WriteString(m.label("Video URL", focusURL))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	b.WriteString(m.label("Resolution", focusResolution))
	b.WriteString("  ")
	if m.focus == focusResolution {
		b.WriteString(focusedLabelStyle.Render("‹ " + snap.Resolution + " ›"))
	} else {
		b.WriteString(snap.Resolution)
	}
	b.WriteString("\n\n")

	b.WriteString(renderChips(snap.Active))
	b.WriteString("\n\n")

	switch {
	case m.busy || !snap.TriggerEnabled:
		b.WriteString(disabledButtonStyle.Render("Download"))
		b.WriteString(" ")
		b.WriteString(m.spinner.View())
	case m.focus == focusButton:
		b.WriteString(focusedButtonStyle.Render("Download"))
	default:
		b.WriteString(buttonStyle.Render("Download"))
	}
	b.WriteString("\n\n")

	if !snap.Status.IsZero() {
		b.WriteString(renderStatus(snap.Status))
		b.WriteString("\n\n")
	}

	b.WriteString(helpStyle.Render("tab: next field • ←/→: resolution • enter: download • esc: quit"))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf("© %d clipdrop", m.year)))
	b.WriteString("\n")
	return b.String()
}

func (m Model) label(text string, field focusField) string {
	if m.focus == field {
		return focusedLabelStyle.Render(text)
	}
	return labelStyle.Render(text)
}

// Status returns the message currently shown in the status region.
func (m Model) Status() status.Message {
	return m.form.snapshot().Status
}

// LastOutcome returns the result of the most recent completed Submit.
func (m Model) LastOutcome() (dispatch.Outcome, bool) {
	if m.last == nil {
		return dispatch.Outcome{}, false
	}
	return *m.last, true
}
