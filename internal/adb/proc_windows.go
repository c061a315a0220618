//go:build windows

package adb

import (
	"os/exec"
	"syscall"
)

// configureProcess hides the console window adb would otherwise open.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: 0x08000000, // CREATE_NO_WINDOW
	}
	cmd.Cancel = func() error { return cmd.Process.Kill() }
}
