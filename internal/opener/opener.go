// Package opener hands a download link to the operating system so it opens
// in the user's default browser.
package opener

import (
	"fmt"
	"os/exec"
	"runtime"
)

const (
	XDGOpenCommand = "xdg-open"
	OpenCommand    = "open"
	RundllCommand  = "rundll32"
	RundllProtocol = "url.dll,FileProtocolHandler"
)

// System opens URLs with the platform's default handler.
type System struct {
	goos  string
	start func(*exec.Cmd) error
}

func NewSystem() *System {
	return &System{
		goos:  runtime.GOOS,
		start: func(cmd *exec.Cmd) error { return cmd.Start() },
	}
}

func (s *System) Open(url string) error {
	cmd, err := s.command(url)
	if err != nil {
		return err
	}
	if err := s.start(cmd); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	// Reap the child so it does not linger as a zombie.
	go func() { _ = cmd.Wait() }()
	return nil
}

func (s *System) command(url string) (*exec.Cmd, error) {
	switch s.goos {
	case "darwin":
		return exec.Command(OpenCommand, url), nil
	case "windows":
		return exec.Command(RundllCommand, RundllProtocol, url), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command(XDGOpenCommand, url), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", s.goos)
	}
}

// Func adapts an ordinary function to the Open method set.
type Func func(url string) error

func (f Func) Open(url string) error { return f(url) }
