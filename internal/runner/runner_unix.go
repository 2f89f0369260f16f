//go:build unix

package runner

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/mattn/go-isatty"
)

// setProcAttr decides how the worker relates to the supervisor's process
// group and reports whether the worker got a group of its own.
//
// When stdin is the terminal the worker stays in the supervisor's foreground
// group: a background group's first read from the controlling terminal stops
// it with SIGTTIN, which would hang any interactive program. With a
// non-terminal stdin the worker gets its own group instead, so Stop can
// signal the whole subtree it may have spawned.
func setProcAttr(cmd *exec.Cmd) bool {
	if f, ok := cmd.Stdin.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return false
	}

	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	return true
}

// terminate asks the worker to exit. group selects between signaling the
// worker's dedicated process group (negative PID) and the direct child only,
// since in the latter case the group is shared with the supervisor.
func terminate(cmd *exec.Cmd, group bool) {
	if group {
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
		return
	}

	_ = cmd.Process.Signal(syscall.SIGTERM)
}

// kill forcibly ends the worker.
func kill(cmd *exec.Cmd, group bool) {
	if group {
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		return
	}

	_ = cmd.Process.Kill()
}

// exitSignal extracts the terminating signal from an exit error, if any.
func exitSignal(err *exec.ExitError) (int, bool) {
	if ws, ok := err.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return int(ws.Signal()), true
	}

	return 0, false
}
