// Package supervisor implements the watch-and-restart loop: it runs the
// user command in the foreground, listens for qualifying source changes
// from the watcher, and restarts the command when they occur. The command's
// own exit code is propagated when it ends for any other reason.
package supervisor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hupe1980/rewatch/internal/config"
	"github.com/hupe1980/rewatch/internal/runner"
	"github.com/hupe1980/rewatch/internal/watch"
)

// Options configures a Supervisor.
type Options struct {
	// Command is the worker command and its arguments.
	Command []string

	// Config provides watch directories, extensions, and timing knobs.
	Config *config.Config

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out receives user-facing status messages.
	Out io.Writer

	// Stdin, Stdout, Stderr are handed to the worker. Zero values mean the
	// supervisor's own streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Supervisor owns the restart loop state: the watcher, the current worker,
// and the in-band restart intent. Intent is recorded before a kill is
// issued, never inferred from exit codes.
type Supervisor struct {
	command []string
	cfg     *config.Config
	logger  *slog.Logger
	out     io.Writer
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	styles  styles
}

// New creates a Supervisor. Missing options fall back to defaults.
func New(opts Options) *Supervisor {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	return &Supervisor{
		command: opts.Command,
		cfg:     cfg,
		logger:  logger,
		out:     out,
		stdin:   opts.Stdin,
		stdout:  stdout,
		stderr:  opts.Stderr,
		styles:  newStyles(cfg.NoColor),
	}
}

// Run executes the restart loop until the worker exits without a pending
// restart or ctx is cancelled. It returns the exit code to propagate.
// A non-nil error indicates a fatal supervisor failure, not a worker exit.
func (s *Supervisor) Run(ctx context.Context) (int, error) {
	dirs := s.resolveWatchDirs()

	w, err := watch.New(watch.Options{
		Dirs:       dirs,
		Extensions: s.cfg.Extensions,
		Debounce:   s.cfg.Debounce,
		Logger:     s.logger,
	})
	if err != nil {
		s.println(s.styles.failure, "File watching is unavailable.")
		s.println(s.styles.failure, "On Linux, check the inotify limits (fs.inotify.max_user_instances, fs.inotify.max_user_watches).")

		return 1, err
	}

	watchDone := make(chan struct{})

	go func() {
		defer close(watchDone)
		_ = w.Run(ctx)
	}()

	defer func() {
		_ = w.Close()
		<-watchDone
	}()

	s.println(s.styles.banner, "Watching: "+strings.Join(dirs, ", ")+" ("+strings.Join(s.cfg.Extensions, ", ")+")")
	s.println(s.styles.banner, "Press Ctrl+C to stop")

	for {
		s.println(s.styles.banner, "Starting: "+strings.Join(s.command, " "))

		worker, err := runner.Start(s.command, runner.Options{
			Stdin:  s.stdin,
			Stdout: s.stdout,
			Stderr: s.stderr,
		})
		if err != nil {
			return 1, err
		}

		s.logger.Debug("worker started", slog.Int("pid", worker.Pid()))

		// Restart intent for this iteration. Set before the kill is issued
		// so the exit below is never misread as the worker's own doing.
		restartPending := false

	wait:
		for {
			select {
			case <-ctx.Done():
				s.println(s.styles.banner, "Shutting down...")
				worker.Stop(s.cfg.StopTimeout)

				outcome := <-worker.Done()
				if outcome.Signaled {
					runner.ResetTerminal(s.stdout)
				}

				return 0, nil

			case ev := <-w.Events():
				if restartPending {
					// Already stopping for a restart; coalesce.
					continue
				}

				restartPending = true

				s.logger.Info("change detected", slog.String("path", ev.Path))
				s.println(s.styles.restart, "Files changed, restarting...")
				worker.Stop(s.cfg.StopTimeout)

			case outcome := <-worker.Done():
				if outcome.Signaled {
					runner.ResetTerminal(s.stdout)
				}

				if outcome.Err != nil {
					return outcome.ExitCode, fmt.Errorf("waiting for worker: %w", outcome.Err)
				}

				if restartPending {
					if !s.settle(ctx) {
						return 0, nil
					}

					s.drainEvents(w)

					break wait
				}

				if outcome.ExitCode == 0 {
					s.println(s.styles.ok, "Command exited normally")
					return 0, nil
				}

				s.println(s.styles.failure, fmt.Sprintf("Command exited with code %d", outcome.ExitCode))

				if !s.cfg.RestartOnCrash {
					return outcome.ExitCode, nil
				}

				s.println(s.styles.restart, "Waiting for file changes to restart...")

				select {
				case <-ctx.Done():
					s.println(s.styles.banner, "Shutting down...")
					return 0, nil

				case ev := <-w.Events():
					s.logger.Info("change detected", slog.String("path", ev.Path))
					s.println(s.styles.restart, "Files changed, restarting...")

					if !s.settle(ctx) {
						return 0, nil
					}

					s.drainEvents(w)

					break wait
				}
			}
		}
	}
}

// resolveWatchDirs filters the configured directories to those that exist.
// When none exist the current directory is watched instead.
func (s *Supervisor) resolveWatchDirs() []string {
	var existing []string

	for _, dir := range s.cfg.WatchDirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			existing = append(existing, dir)
		}
	}

	if len(existing) == 0 {
		s.logger.Warn("no watch directory exists, watching current directory",
			slog.Any("configured", s.cfg.WatchDirs),
		)

		return []string{"."}
	}

	return existing
}

// settle pauses for the configured delay so the filesystem can quiet down
// before the next worker starts. Returns false if ctx was cancelled.
func (s *Supervisor) settle(ctx context.Context) bool {
	if s.cfg.SettleDelay <= 0 {
		return true
	}

	timer := time.NewTimer(s.cfg.SettleDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		s.println(s.styles.banner, "Shutting down...")
		return false
	case <-timer.C:
		return true
	}
}

// drainEvents discards change events that piled up during a restart. They
// are covered by the restart already underway.
func (s *Supervisor) drainEvents(w *watch.Watcher) {
	for {
		select {
		case <-w.Events():
		default:
			return
		}
	}
}

func (s *Supervisor) println(style lipgloss.Style, msg string) {
	_, _ = fmt.Fprintln(s.out, style.Render(msg))
}
