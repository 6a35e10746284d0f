package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"clipdrop/internal/client"
	"clipdrop/internal/platform"
	"clipdrop/internal/status"
	"clipdrop/internal/utils"
)

// View is the form the controller drives. Implementations that are touched
// from more than one goroutine must synchronise themselves.
type View interface {
	URL() string
	Resolution() string
	SetStatus(status.Message)
	HighlightPlatform(platform.Platform)
	SetTriggerEnabled(bool)
}

// Sender issues the download request. *client.Client implements it.
type Sender interface {
	Post(ctx context.Context, req client.Request) (*http.Response, error)
}

// Opener opens a download link in a new browsing context.
type Opener interface {
	Open(url string) error
}

type Phase int32

const (
	Idle Phase = iota
	Validating
	Sending
	AwaitingResponse
	Success
	Failure
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Sending:
		return "sending"
	case AwaitingResponse:
		return "awaiting-response"
	case Success:
		return "success"
	case Failure:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

// Outcome summarises one Submit call.
type Outcome struct {
	Phase    Phase // Success or Failure; Failure also covers rejected input
	Sent     bool
	Request  client.Request
	Reply    client.Reply
	Status   status.Message
	Opened   string
	HTTPCode int
}

type Controller struct {
	view    View
	sender  Sender
	opener  Opener
	phase   atomic.Int32
	onPhase func(Phase)
}

type Option func(*Controller)

// WithPhaseObserver registers fn to be called on every state transition.
func WithPhaseObserver(fn func(Phase)) Option {
	return func(c *Controller) {
		c.onPhase = fn
	}
}

func New(view View, sender Sender, opener Opener, opts ...Option) *Controller {
	c := &Controller{
		view:   view,
		sender: sender,
		opener: opener,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Phase() Phase {
	return Phase(c.phase.Load())
}

func (c *Controller) enter(p Phase) {
	c.phase.Store(int32(p))
	if c.onPhase != nil {
		c.onPhase(p)
	}
}

// Refresh re-runs detection and validation for the current URL field and
// updates the platform chips and the status region. Call it on every edit,
// blur and change of the field.
func (c *Controller) Refresh() platform.Platform {
	value := strings.TrimSpace(c.view.URL())

	if value == "" {
		c.view.HighlightPlatform(platform.None)
		c.view.SetStatus(status.InfoText("Paste a link to auto-detect the platform."))
		return platform.None
	}

	if !platform.LooksLikeURL(value) {
		c.view.HighlightPlatform(platform.None)
		c.view.SetStatus(status.ErrorText(msgInvalidURL))
		return platform.None
	}

	detected := platform.Detect(value)
	if !detected.Known() {
		c.view.HighlightPlatform(platform.None)
		c.view.SetStatus(status.New(status.Info).
			Text("URL looks valid but platform is ").
			Platform(platform.Unknown.Label()).
			Text("."))
		return detected
	}

	c.view.HighlightPlatform(detected)
	c.view.SetStatus(status.New(status.OK).
		Text("Detected platform: ").
		Platform(detected.Label()).
		Text(". You can start now."))
	return detected
}

const (
	msgEmptyURL   = "Please paste a video URL first."
	msgInvalidURL = "This does not look like a valid URL."
	msgSending    = "Sending request to server…"
)

// Submit runs the trigger handler: validate, send one request, interpret
// the reply. The trigger is disabled while the request is in flight and is
// re-enabled on every exit path once a request has been attempted.
func (c *Controller) Submit(ctx context.Context) Outcome {
	c.enter(Validating)

	videoURL := strings.TrimSpace(c.view.URL())
	resolution := c.view.Resolution()

	if videoURL == "" {
		return c.reject(status.ErrorText(msgEmptyURL))
	}
	if !platform.LooksLikeURL(videoURL) {
		return c.reject(status.ErrorText(msgInvalidURL))
	}

	req := client.Request{
		VideoURL:   videoURL,
		Resolution: resolution,
		Platform:   platform.Detect(videoURL),
	}
	out := Outcome{Request: req, Sent: true}

	c.view.SetStatus(status.InfoText(msgSending))
	c.view.SetTriggerEnabled(false)
	defer func() {
		c.view.SetTriggerEnabled(true)
		c.enter(Idle)
	}()

	c.enter(Sending)
	utils.LogInfo("[DISPATCH] POST %s (platform=%s, resolution=%s)", videoURL, req.Platform, resolution)

	resp, err := c.sender.Post(ctx, req)
	if err != nil {
		utils.LogError("[DISPATCH] Client error: %v", err)
		return c.finish(out, Failure, status.ErrorText("Network error while talking to the server: "+err.Error()))
	}

	c.enter(AwaitingResponse)
	ex, err := client.ReadExchange(resp)
	if err != nil {
		utils.LogError("[DISPATCH] Client error: %v", err)
		return c.finish(out, Failure, status.ErrorText("Network error while talking to the server: "+err.Error()))
	}
	out.HTTPCode = ex.StatusCode
	utils.LogInfo("[DISPATCH] Raw response text: %s", ex.Body)

	decoded := client.Decode(ex.Body)
	if !decoded.OK() {
		utils.LogError("[DISPATCH] JSON parse error: %v", decoded.Err)
		return c.finish(out, Failure, status.ErrorText("Server responded, but not in JSON format: "+decoded.Raw))
	}
	out.Reply = decoded.Reply

	if !ex.OK() {
		utils.LogInfo("[DISPATCH] Response not OK, status = %d", ex.StatusCode)
		msg := decoded.Reply.Message
		if msg == "" {
			msg = fmt.Sprintf("Server error: %d", ex.StatusCode)
		}
		return c.finish(out, Failure, status.ErrorText(msg))
	}

	switch decoded.Reply.Kind {
	case client.ReplyReady:
		link := decoded.Reply.DownloadURL
		out = c.finish(out, Success, status.New(status.OK).
			Text("Your file is ready. Download will start automatically. (If not, ").
			Link("click here", link).
			Text(".)"))
		if c.opener != nil {
			if err := c.opener.Open(link); err != nil {
				utils.LogWarning("[DISPATCH] Failed to open %s: %v", link, err)
			} else {
				out.Opened = link
			}
		}
		return out

	case client.ReplyQueued:
		return c.finish(out, Success, status.OKText(fmt.Sprintf(
			"Request received ✔ Platform: %s. Backend will handle it.", req.Platform)))

	case client.ReplyOther:
		msg := decoded.Reply.Message
		if msg == "" {
			msg = "Request completed, but no download URL was returned by the server."
		}
		return c.finish(out, Success, status.InfoText(msg))

	default:
		panic(fmt.Sprintf("dispatch: unhandled reply kind %v", decoded.Reply.Kind))
	}
}

func (c *Controller) reject(msg status.Message) Outcome {
	c.view.SetStatus(msg)
	c.enter(Failure)
	c.enter(Idle)
	return Outcome{Phase: Failure, Status: msg}
}

func (c *Controller) finish(out Outcome, phase Phase, msg status.Message) Outcome {
	c.view.SetStatus(msg)
	c.enter(phase)
	out.Phase = phase
	out.Status = msg
	return out
}
