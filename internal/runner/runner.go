package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"goblin/internal/notify"
)

// ErrLaunch is wrapped when the subprocess could not be started.
var ErrLaunch = errors.New("failed to launch command")

// Options controls a single Run.
type Options struct {
	Args []string
	// Stream passes the child's output straight to the terminal. When false output is buffered.
	Stream bool
	// IncludeOutput puts captured stdout/stderr into the report. Ignored when streaming.
	IncludeOutput bool
	NotifyStart   bool
	Username      string
}

// Result is the outcome of a Run.
type Result struct {
	Report    ExecutionReport
	Delivered bool
}

// Runner executes a command, samples it once and reports the outcome through a Deliverer.
type Runner struct {
	Notifier notify.Deliverer
	Sampler  Sampler

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New returns a Runner wired to the process's standard streams.
func New(n notify.Deliverer, s Sampler) *Runner {
	return &Runner{
		Notifier: n,
		Sampler:  s,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
}

// CommandLine joins args the way they are shown in notifications.
func CommandLine(args []string) string {
	return strings.Join(args, " ")
}

// Run launches opts.Args, waits for it and delivers the completion report.
// The returned error is non-nil only when the command could not be launched.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if len(opts.Args) == 0 {
		return nil, fmt.Errorf("%w: no command given", ErrLaunch)
	}
	cmdLine := CommandLine(opts.Args)

	if opts.NotifyStart && r.Notifier != nil {
		r.Notifier.Deliver(ctx, StartMessage(cmdLine, opts.Username))
	}

	fmt.Fprintf(r.Stdout, "Running: %s\n", cmdLine)

	cmd := exec.CommandContext(ctx, opts.Args[0], opts.Args[1:]...)
	cmd.Stdin = r.Stdin

	var outBuf, errBuf bytes.Buffer
	if opts.Stream {
		cmd.Stdout = r.Stdout
		cmd.Stderr = r.Stderr
	} else {
		cmd.Stdout = &outBuf
		cmd.Stderr = &errBuf
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}
	slog.Debug("command launched", "command", cmdLine, "pid", cmd.Process.Pid, "stream", opts.Stream)

	var usage Usage
	var sampled bool
	if r.Sampler != nil {
		usage, sampled = r.Sampler.Sample(ctx, cmd.Process.Pid)
	}
	if !sampled {
		slog.Debug("resource sample unavailable", "pid", cmd.Process.Pid)
	}

	waitErr := cmd.Wait()
	duration := time.Since(start)

	exitCode, err := exitCodeOf(cmd, waitErr)
	if err != nil {
		return nil, err
	}

	report := ExecutionReport{
		Command:          cmdLine,
		ExitCode:         exitCode,
		Duration:         duration,
		CPUPercent:       usage.CPUPercent,
		MemoryMB:         usage.MemoryMB,
		ResourcesSampled: sampled,
	}
	switch {
	case opts.Stream:
		report.Stdout = StreamedPlaceholder
	case opts.IncludeOutput:
		report.Stdout = strings.TrimSpace(outBuf.String())
		report.Stderr = strings.TrimSpace(errBuf.String())
	default:
		report.Stdout = OmittedPlaceholder
	}

	slog.Debug("command finished", "command", cmdLine, "exit_code", exitCode, "duration", duration)

	result := &Result{Report: report}
	if r.Notifier != nil {
		result.Delivered = r.Notifier.Deliver(ctx, report.Message(opts.Username))
	}
	return result, nil
}

// exitCodeOf maps a finished command to a shell-style exit status.
// A child killed by signal N yields 128+N.
func exitCodeOf(cmd *exec.Cmd, waitErr error) (int, error) {
	state := cmd.ProcessState
	if state == nil {
		return 0, fmt.Errorf("failed to wait for command: %w", waitErr)
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal()), nil
	}
	if code := state.ExitCode(); code >= 0 {
		return code, nil
	}
	return 1, nil
}
