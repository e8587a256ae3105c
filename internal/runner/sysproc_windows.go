//go:build windows

package runner

import "os/exec"

// killProcessGroup is a no-op on Windows; only the direct child is killed.
func killProcessGroup(cmd *exec.Cmd) {}
