// Package sigctl owns the shell's process-wide signal dispositions and the
// foreground-only flag toggled by SIGTSTP.
package sigctl

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

const (
	enterBanner = "\nEntering foreground-only mode (& is now ignored)\n"
	exitBanner  = "\nExiting foreground-only mode\n"
)

// Controller installs the shell's signal dispositions: SIGINT is caught and
// discarded, SIGTSTP toggles foreground-only mode and writes a banner. While
// a foreground child is being waited on the toggle is deferred with
// Hold/Release so the flag cannot change between the launch of a child and
// the reporting of its status.
//
// SIGINT must be caught rather than ignored: an ignored disposition survives
// exec, a caught one resets to the default action, and foreground children
// need the default action.
type Controller struct {
	banner *os.File
	sigs   chan os.Signal

	mu             sync.Mutex
	foregroundOnly bool
	held           bool
	deferred       int
	fgPid          int

	// onToggle, if set, observes each applied toggle. It runs outside the
	// OS signal handler so it may allocate and log.
	onToggle func(foregroundOnly bool)
}

// Start installs the dispositions and begins watching for signals. The
// banner file is written with a raw write so output cannot be reordered by
// stdio buffering.
func Start(banner *os.File, onToggle func(bool)) *Controller {
	c := &Controller{
		banner:   banner,
		sigs:     make(chan os.Signal, 4),
		onToggle: onToggle,
	}

	signal.Notify(c.sigs, syscall.SIGTSTP, syscall.SIGINT)
	go c.watch()

	return c
}

func (c *Controller) watch() {
	for sig := range c.sigs {
		// SIGINT is drained: only a foreground child may be interrupted.
		if sig == syscall.SIGTSTP {
			c.Toggle()
		}
	}
}

// Toggle flips the foreground-only flag and writes the matching banner, or
// defers both if a foreground wait is in progress. It is the action taken on
// SIGTSTP.
func (c *Controller) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.held {
		c.deferred++
		// The foreground child got its copy of the group's SIGTSTP and
		// is stopped. Wake it so the wait can finish.
		if c.fgPid > 0 {
			_ = unix.Kill(c.fgPid, unix.SIGCONT)
		}
		return
	}
	c.apply()
}

// apply must be called with mu held.
func (c *Controller) apply() {
	c.foregroundOnly = !c.foregroundOnly

	msg := exitBanner
	if c.foregroundOnly {
		msg = enterBanner
	}
	_, _ = unix.Write(int(c.banner.Fd()), []byte(msg))

	if c.onToggle != nil {
		c.onToggle(c.foregroundOnly)
	}
}

// ForegroundOnly reports whether background requests are currently downgraded
// to foreground. It is the narrow read accessor consulted by the parser.
func (c *Controller) ForegroundOnly() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.foregroundOnly
}

// Hold defers SIGTSTP toggles until Release. Call before waiting on a
// foreground child, passing its pid so a SIGTSTP-stopped child can be
// continued; pass 0 when there is no child to continue.
func (c *Controller) Hold(fgPid int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.held = true
	c.fgPid = fgPid
}

// Release lifts a Hold and applies any toggles that arrived during it, each
// with its banner, in order.
func (c *Controller) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.held = false
	c.fgPid = 0
	for ; c.deferred > 0; c.deferred-- {
		c.apply()
	}
}

// Stop restores the default dispositions and ends the watcher. Pending
// deferred toggles are discarded.
func (c *Controller) Stop() {
	signal.Stop(c.sigs)
	close(c.sigs)
}
