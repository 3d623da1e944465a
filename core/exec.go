package core

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"syscall"

	"smallsh/core/logger"
	"smallsh/core/sigctl"
)

// Executor dispatches external commands from Plans. Builtins are handled by
// the Shell before a plan reaches the executor.
type Executor struct {
	out      io.Writer
	registry *Registry
	signals  *sigctl.Controller
	log      *logger.SessionLogger

	last Status
}

// NewExecutor wires an executor. signals may be nil (no foreground wait
// guard) and log may be nil (no event log); both are exercised in unit tests
// that way.
func NewExecutor(out io.Writer, registry *Registry, signals *sigctl.Controller, log *logger.SessionLogger) *Executor {
	if log == nil {
		log = logger.NewNopLogRecorder().NewSession()
	}
	return &Executor{
		out:      out,
		registry: registry,
		signals:  signals,
		log:      log,
	}
}

// LastStatus returns the termination status of the most recent foreground
// child. The initial value is "exit value 0".
func (e *Executor) LastStatus() Status {
	return e.last
}

// Registry exposes the background registry, mainly to the reaper and tests.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Launch runs an external command. Foreground plans are waited on
// synchronously and update the last status; background plans are recorded in
// the registry and reported by PID.
func (e *Executor) Launch(plan *Plan) {
	inPath, outPath := plan.InputFile, plan.OutputFile

	// Background children must not touch the terminal.
	if plan.Background {
		if inPath == "" {
			inPath = os.DevNull
		}
		if outPath == "" {
			outPath = os.DevNull
		}
	}

	cmd := exec.Command(plan.Argv[0], plan.Argv[1:]...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr

	var toClose []*os.File
	defer func() {
		for _, fd := range toClose {
			fd.Close()
		}
	}()

	if inPath != "" {
		fd, err := os.Open(inPath)
		if err != nil {
			e.redirectFailed(inPath, plan.Background)
			return
		}
		toClose = append(toClose, fd)
		cmd.Stdin = fd
	}
	if outPath != "" {
		// O_CREATE without O_TRUNC, mode 0777.
		fd, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE, 0777)
		if err != nil {
			e.redirectFailed(outPath, plan.Background)
			return
		}
		toClose = append(toClose, fd)
		cmd.Stdout = fd
	}

	if plan.Background {
		// A separate process group keeps terminal SIGINT and SIGTSTP away
		// from background children.
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(e.out, "bash: %s: Command not found\n", plan.Argv[0])
			if !plan.Background {
				e.last = ExitStatus(1)
			}
		} else {
			fmt.Fprintln(e.out, "Error forking process")
		}
		return
	}

	pid := cmd.Process.Pid
	e.log.CommandRun(plan.Argv, plan.Background, false, pid)

	if plan.Background {
		e.registry.Insert(pid)
		fmt.Fprintf(e.out, "background pid is %d\n", pid)
		return
	}

	// Mode toggles are deferred until the wait returns so the flag and its
	// banner cannot interleave with the child's status report. The child's
	// pid lets the controller continue it if SIGTSTP stopped it.
	if e.signals != nil {
		e.signals.Hold(pid)
		defer e.signals.Release()
	}

	e.last = statusFromWaitErr(cmd.Wait())
	if e.last.Signaled {
		fmt.Fprintf(e.out, "%s\n", e.last)
	}
	e.log.CommandDone(pid, false, e.last.Signaled, e.last.Value)
}

// redirectFailed reports a redirection target that could not be opened. Only
// a foreground failure claims the last status slot.
func (e *Executor) redirectFailed(path string, background bool) {
	fmt.Fprintf(e.out, "bash: %s: No such file or directory\n", path)
	if !background {
		e.last = ExitStatus(1)
	}
}

// Reap sweeps the registry, reporting every background child that finished
// since the last sweep.
func (e *Executor) Reap() {
	e.registry.Sweep(func(pid int, status Status) {
		fmt.Fprintf(e.out, "background pid %d is done: %s\n", pid, status)
		e.log.CommandDone(pid, true, status.Signaled, status.Value)
	})
}

// Shutdown force-kills every surviving background child.
func (e *Executor) Shutdown() {
	e.registry.KillAll()
}
