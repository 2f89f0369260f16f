// Package runner starts and stops the supervised worker process. The worker
// inherits the supervisor's standard I/O. With a non-terminal stdin it runs
// in its own process group so that termination reaches the whole subtree it
// may have spawned; with a terminal stdin it stays in the supervisor's
// foreground group, because a background group stops with SIGTTIN on its
// first terminal read and interactive programs would hang.
package runner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Outcome describes how a worker run ended.
type Outcome struct {
	// ExitCode is the code to propagate. For signal deaths it follows the
	// shell convention of 128 plus the signal number.
	ExitCode int

	// Signaled is true when the worker was terminated by a signal rather
	// than exiting on its own.
	Signaled bool

	// Err is set for failures that produced no exit status at all
	// (e.g. wait errors). Exit statuses themselves are not errors here.
	Err error
}

// Options configures where the worker's standard streams go. Zero values
// mean the supervisor's own streams, so the worker owns the terminal.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Dir is the working directory. Empty means the current directory.
	Dir string
}

// Worker is a single running instance of the supervised command.
type Worker struct {
	cmd      *exec.Cmd
	group    bool
	done     chan Outcome
	exited   chan struct{}
	stopOnce sync.Once
}

// Start launches command with inherited standard I/O and begins waiting for
// it in the background.
func Start(command []string, opts Options) (*Worker, error) {
	if len(command) == 0 {
		return nil, errors.New("command is required")
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = opts.Dir

	cmd.Stdin = opts.Stdin
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}

	cmd.Stdout = opts.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}

	cmd.Stderr = opts.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	group := setProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %q: %w", command[0], err)
	}

	w := &Worker{
		cmd:    cmd,
		group:  group,
		done:   make(chan Outcome, 1),
		exited: make(chan struct{}),
	}

	go w.wait()

	return w, nil
}

// Pid returns the worker's process ID.
func (w *Worker) Pid() int {
	return w.cmd.Process.Pid
}

// Done returns a channel that delivers the worker's Outcome exactly once.
func (w *Worker) Done() <-chan Outcome {
	return w.done
}

// Stop terminates the worker, escalating to a forced kill if it has not
// exited after timeout. Safe to call more than once; callers still receive
// the final Outcome on Done.
func (w *Worker) Stop(timeout time.Duration) {
	w.stopOnce.Do(func() {
		terminate(w.cmd, w.group)

		go func() {
			timer := time.NewTimer(timeout)
			defer timer.Stop()

			select {
			case <-w.exited:
			case <-timer.C:
				kill(w.cmd, w.group)
			}
		}()
	})
}

func (w *Worker) wait() {
	err := w.cmd.Wait()
	close(w.exited)
	w.done <- classify(err)
}

// classify maps the result of Wait to an Outcome.
func classify(err error) Outcome {
	if err == nil {
		return Outcome{ExitCode: 0}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if sig, signaled := exitSignal(exitErr); signaled {
			return Outcome{ExitCode: 128 + sig, Signaled: true}
		}

		return Outcome{ExitCode: exitErr.ExitCode()}
	}

	return Outcome{ExitCode: 1, Err: err}
}
