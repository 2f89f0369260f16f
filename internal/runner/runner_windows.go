//go:build windows

package runner

import "os/exec"

func setProcAttr(*exec.Cmd) bool {
	return false
}

func terminate(cmd *exec.Cmd, _ bool) {
	_ = cmd.Process.Kill()
}

func kill(cmd *exec.Cmd, _ bool) {
	_ = cmd.Process.Kill()
}

func exitSignal(*exec.ExitError) (int, bool) {
	return 0, false
}
