//go:build !windows

package runner

import (
	"os/exec"
	"syscall"
)

// killProcessGroup starts the analyzer in its own process group and makes
// context cancellation kill the whole group, so workers the analyzer
// spawned cannot outlive the run and keep writing into its directory.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		return nil
	}
}
