package core

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"

	"smallsh/core/sigctl"
)

func newTestExecutor() (*Executor, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewExecutor(&buf, NewRegistry(), nil, nil), &buf
}

func TestLaunchForegroundUpdatesLastStatus(t *testing.T) {
	e, out := newTestExecutor()

	e.Launch(&Plan{Argv: []string{"sh", "-c", "exit 3"}})

	assert.Equal(t, ExitStatus(3), e.LastStatus())
	assert.Empty(t, out.String())
}

func TestLaunchForegroundSignalReportedImmediately(t *testing.T) {
	e, out := newTestExecutor()

	// The child kills itself so the wait observes a signal death.
	e.Launch(&Plan{Argv: []string{"sh", "-c", "kill -15 $$"}})

	assert.Equal(t, SignalStatus(15), e.LastStatus())
	assert.Equal(t, "terminated by signal 15\n", out.String())
}

func TestLaunchCommandNotFound(t *testing.T) {
	e, out := newTestExecutor()

	e.Launch(&Plan{Argv: []string{"no-such-command-4242"}})

	assert.Equal(t, "bash: no-such-command-4242: Command not found\n", out.String())
	assert.Equal(t, ExitStatus(1), e.LastStatus())
}

func TestLaunchMissingInputFile(t *testing.T) {
	e, out := newTestExecutor()

	e.Launch(&Plan{Argv: []string{"wc"}, InputFile: "missing.txt"})

	assert.Equal(t, "bash: missing.txt: No such file or directory\n", out.String())
	assert.Equal(t, ExitStatus(1), e.LastStatus())
}

func TestLaunchRedirection(t *testing.T) {
	e, out := newTestExecutor()
	dir := t.TempDir()

	inPath := filepath.Join(dir, "in.txt")
	outPath := filepath.Join(dir, "out.txt")
	if err := ioutil.WriteFile(inPath, []byte("hello redirect\n"), 0600); err != nil {
		t.Fatal(err)
	}

	e.Launch(&Plan{Argv: []string{"cat"}, InputFile: inPath, OutputFile: outPath})

	assert.Equal(t, ExitStatus(0), e.LastStatus())
	assert.Empty(t, out.String())

	got, err := ioutil.ReadFile(outPath)
	if assert.Nil(t, err) {
		assert.Equal(t, "hello redirect\n", string(got))
	}
}

func TestLaunchBackgroundRegistersAndReaps(t *testing.T) {
	e, out := newTestExecutor()

	e.Launch(&Plan{Argv: []string{"true"}, Background: true})

	if !assert.Equal(t, 1, e.Registry().Len()) {
		return
	}
	pid := e.Registry().Pids()[0]
	assert.Equal(t, fmt.Sprintf("background pid is %d\n", pid), out.String())

	// The launch must not disturb the foreground status cell.
	assert.Equal(t, ExitStatus(0), e.LastStatus())

	out.Reset()
	deadline := time.Now().Add(5 * time.Second)
	for e.Registry().Len() > 0 && time.Now().Before(deadline) {
		e.Reap()
		time.Sleep(10 * time.Millisecond)
	}

	assert.Equal(t, fmt.Sprintf("background pid %d is done: exit value 0\n", pid), out.String())
}

// newSignalExecutor builds an executor backed by live signal dispositions,
// with banners discarded. Needed by the tests that signal a running child.
func newSignalExecutor(t *testing.T) (*Executor, *bytes.Buffer, *sigctl.Controller) {
	t.Helper()

	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { devNull.Close() })

	signals := sigctl.Start(devNull, nil)
	t.Cleanup(signals.Stop)

	var buf bytes.Buffer
	return NewExecutor(&buf, NewRegistry(), signals, nil), &buf, signals
}

// launchPidReporter starts a foreground child that writes its own pid to a
// file and then becomes the given command via exec, so the reported pid stays
// valid. Returns the pid and a channel closed when Launch returns.
func launchPidReporter(t *testing.T, e *Executor, command string) (int, chan struct{}) {
	t.Helper()

	pidFile := filepath.Join(t.TempDir(), "pid")
	script := fmt.Sprintf("echo $$ > %s; exec %s", pidFile, command)

	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Launch(&Plan{Argv: []string{"sh", "-c", script}})
	}()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if data, err := ioutil.ReadFile(pidFile); err == nil {
			if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && pid > 0 {
				return pid, done
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("child never reported its pid")
	return 0, nil
}

func TestForegroundChildDiesFromInterrupt(t *testing.T) {
	e, out, _ := newSignalExecutor(t)

	pid, done := launchPidReporter(t, e, "sleep 30")

	// The child must carry the default SIGINT action, not an inherited
	// ignore.
	_ = unix.Kill(pid, unix.SIGINT)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("foreground child survived SIGINT")
	}

	assert.Equal(t, SignalStatus(2), e.LastStatus())
	assert.Equal(t, "terminated by signal 2\n", out.String())
}

func TestForegroundStopDoesNotHangTheWait(t *testing.T) {
	e, _, signals := newSignalExecutor(t)

	pid, done := launchPidReporter(t, e, "sleep 1")

	// Give the wait a moment to begin before simulating the terminal's
	// group-wide SIGTSTP: one copy to the child, one to this process.
	time.Sleep(100 * time.Millisecond)
	_ = unix.Kill(pid, unix.SIGTSTP)
	_ = unix.Kill(os.Getpid(), unix.SIGTSTP)

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("foreground wait never returned after SIGTSTP")
	}

	assert.Equal(t, ExitStatus(0), e.LastStatus())

	// The deferred toggle applies once the wait returns.
	assert.True(t, signals.ForegroundOnly())
}

func TestBackgroundCommandNotFoundKeepsLastStatus(t *testing.T) {
	e, out := newTestExecutor()

	e.Launch(&Plan{Argv: []string{"no-such-command-4242"}, Background: true})

	assert.Equal(t, "bash: no-such-command-4242: Command not found\n", out.String())
	assert.Equal(t, ExitStatus(0), e.LastStatus())
}

func TestBackgroundRedirectFailureKeepsLastStatus(t *testing.T) {
	e, out := newTestExecutor()

	e.Launch(&Plan{Argv: []string{"wc"}, InputFile: "missing.txt", Background: true})

	assert.Equal(t, "bash: missing.txt: No such file or directory\n", out.String())
	assert.Equal(t, ExitStatus(0), e.LastStatus())
}

func TestShutdownKillsBackgroundChildren(t *testing.T) {
	e, _ := newTestExecutor()

	e.Launch(&Plan{Argv: []string{"sleep", "30"}, Background: true})
	e.Launch(&Plan{Argv: []string{"sleep", "30"}, Background: true})
	assert.Equal(t, 2, e.Registry().Len())

	e.Shutdown()
	assert.Equal(t, 0, e.Registry().Len())
}
