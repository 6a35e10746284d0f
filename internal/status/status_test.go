package status

import (
	"strings"
	"testing"
)

func TestMessagePlain(t *testing.T) {
	msg := New(OK).Text("Detected platform: ").Platform("YouTube").Text(". You can start now.")

	if got := msg.Plain(); got != "Detected platform: YouTube. You can start now." {
		t.Errorf("Plain() = %q", got)
	}
	if msg.Severity != OK {
		t.Errorf("Severity = %q, want ok", msg.Severity)
	}
}

func TestMessageHTMLEscapesText(t *testing.T) {
	msg := ErrorText(`Server responded, but not in JSON format: <b>oops</b>`)

	got := string(msg.HTML())
	if strings.Contains(got, "<b>") {
		t.Errorf("HTML() did not escape raw body: %s", got)
	}
	if !strings.Contains(got, "&lt;b&gt;oops&lt;/b&gt;") {
		t.Errorf("HTML() = %s", got)
	}
}

func TestMessageHTMLMarkup(t *testing.T) {
	msg := New(OK).
		Text("Platform: ").
		Platform("TikTok").
		Text(" (").
		Link("click here", `https://x/y.mp4?a=1&b="2"`).
		Text(")")

	got := string(msg.HTML())
	want := []string{
		`<span class="platform-label">TikTok</span>`,
		`<a href="https://x/y.mp4?a=1&amp;b=&#34;2&#34;" class="download-link"`,
		`>click here</a>`,
	}
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Errorf("HTML() = %s\nmissing %s", got, w)
		}
	}
}

func TestMessageBuilderDoesNotAlias(t *testing.T) {
	base := New(Info).Text("a")
	left := base.Text("b")
	right := base.Text("c")

	if left.Plain() != "ab" || right.Plain() != "ac" {
		t.Errorf("builder aliased segments: %q %q", left.Plain(), right.Plain())
	}
}

func TestClass(t *testing.T) {
	if got := InfoText("x").Class(); got != "status info" {
		t.Errorf("Class() = %q", got)
	}
	var zero Message
	if !zero.IsZero() || InfoText("").IsZero() {
		t.Error("IsZero misreported")
	}
}
