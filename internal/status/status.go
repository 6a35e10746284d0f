// Package status models the text shown in a form's status region: a
// severity plus a short run of segments, some of which carry simple inline
// markup (a styled platform name or a link).
package status

import (
	"html/template"
	"strings"
)

type Severity string

const (
	Info  Severity = "info"
	Error Severity = "error"
	OK    Severity = "ok"
)

type SegmentKind int

const (
	TextSegment SegmentKind = iota
	PlatformSegment
	LinkSegment
)

type Segment struct {
	Kind SegmentKind
	Text string
	Href string
}

type Message struct {
	Severity Severity
	Segments []Segment
}

// New starts a message with the given severity. Segments are appended with
// Text, Platform and Link.
func New(severity Severity) Message {
	return Message{Severity: severity}
}

func InfoText(text string) Message  { return New(Info).Text(text) }
func ErrorText(text string) Message { return New(Error).Text(text) }
func OKText(text string) Message    { return New(OK).Text(text) }

func (m Message) Text(text string) Message {
	return m.append(Segment{Kind: TextSegment, Text: text})
}

func (m Message) Platform(label string) Message {
	return m.append(Segment{Kind: PlatformSegment, Text: label})
}

func (m Message) Link(text, href string) Message {
	return m.append(Segment{Kind: LinkSegment, Text: text, Href: href})
}

func (m Message) append(s Segment) Message {
	segments := make([]Segment, len(m.Segments), len(m.Segments)+1)
	copy(segments, m.Segments)
	m.Segments = append(segments, s)
	return m
}

// Plain flattens the message to text. Links keep their visible text only.
func (m Message) Plain() string {
	var b strings.Builder
	for _, s := range m.Segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

// HTML renders the message with its markup: platform names become
// <span class="platform-label"> and links open in a new tab. All text is
// escaped.
func (m Message) HTML() template.HTML {
	var b strings.Builder
	for _, s := range m.Segments {
		switch s.Kind {
		case PlatformSegment:
			b.WriteString(`<span class="platform-label">`)
			b.WriteString(template.HTMLEscapeString(s.Text))
			b.WriteString(`</span>`)
		case LinkSegment:
			b.WriteString(`<a href="`)
			b.WriteString(template.HTMLEscapeString(s.Href))
			b.WriteString(`" class="download-link" target="_blank" rel="noopener">`)
			b.WriteString(template.HTMLEscapeString(s.Text))
			b.WriteString(`</a>`)
		default:
			b.WriteString(template.HTMLEscapeString(s.Text))
		}
	}
	return template.HTML(b.String())
}

// Class is the CSS class list used for the status region.
func (m Message) Class() string {
	return "status " + string(m.Severity)
}

// Contains reports whether the flattened text includes substr.
func (m Message) Contains(substr string) bool {
	return strings.Contains(m.Plain(), substr)
}

func (m Message) IsZero() bool {
	return m.Severity == "" && len(m.Segments) == 0
}
