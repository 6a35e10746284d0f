//go:build !windows

package core

import (
	"log"
	"os/exec"
	"syscall"
	"time"
)

// setupProcessGroup starts yt-dlp in its own process group so cancelling a
// job also stops the ffmpeg children it spawned.
func setupProcessGroup(cmd *exec.Cmd, jobID string) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.WaitDelay = 10 * time.Second

	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		log.Printf("[DOWNLOAD] %s: Terminating process group %d", jobID, cmd.Process.Pid)
		if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM); err != nil {
			log.Printf("[DOWNLOAD] %s: SIGTERM failed, using SIGKILL: %v", jobID, err)
			return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		return nil
	}
}
