package core

import (
	"fmt"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// Status is the termination status of a child: either a normal exit code or
// the number of the signal that killed it. The zero value is "exit value 0".
type Status struct {
	Signaled bool
	Value    int
}

// ExitStatus builds a Status for a normal exit.
func ExitStatus(code int) Status {
	return Status{Value: code}
}

// SignalStatus builds a Status for a signal-killed child.
func SignalStatus(signum int) Status {
	return Status{Signaled: true, Value: signum}
}

// String renders the status in the shell's fixed report format.
func (s Status) String() string {
	if s.Signaled {
		return fmt.Sprintf("terminated by signal %d", s.Value)
	}
	return fmt.Sprintf("exit value %d", s.Value)
}

// statusFromWaitStatus decodes the OS's combined encoding as produced by
// wait4.
func statusFromWaitStatus(ws unix.WaitStatus) Status {
	if ws.Signaled() {
		return SignalStatus(int(ws.Signal()))
	}
	return ExitStatus(ws.ExitStatus())
}

// statusFromWaitErr decodes the result of exec.Cmd.Wait.
func statusFromWaitErr(err error) Status {
	if err == nil {
		return ExitStatus(0)
	}
	if ee, ok := err.(*exec.ExitError); ok {
		if ws, ok := ee.Sys().(syscall.WaitStatus); ok {
			if ws.Signaled() {
				return SignalStatus(int(ws.Signal()))
			}
			return ExitStatus(ws.ExitStatus())
		}
	}
	return ExitStatus(1)
}
