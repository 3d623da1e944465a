package core

import (
	"golang.org/x/sys/unix"
)

// Registry is the set of background child PIDs that have been started but not
// yet reaped. It is only touched from the shell's main control flow, never
// from the signal watcher, so it needs no locking.
type Registry struct {
	pids map[int]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{pids: make(map[int]struct{})}
}

// Insert adds a freshly forked background child.
func (r *Registry) Insert(pid int) {
	r.pids[pid] = struct{}{}
}

// Remove drops a reaped child.
func (r *Registry) Remove(pid int) {
	delete(r.pids, pid)
}

// Len reports the number of outstanding children.
func (r *Registry) Len() int {
	return len(r.pids)
}

// Pids returns the outstanding PIDs in unspecified order.
func (r *Registry) Pids() []int {
	out := make([]int, 0, len(r.pids))
	for pid := range r.pids {
		out = append(out, pid)
	}
	return out
}

// Sweep performs a non-blocking wait on every outstanding child. Children
// that have terminated are reported and removed; each PID is visited at most
// once per sweep.
func (r *Registry) Sweep(report func(pid int, status Status)) {
	for pid := range r.pids {
		var ws unix.WaitStatus
		wpid, err := unix.Wait4(pid, &ws, unix.WNOHANG, nil)
		switch {
		case err != nil:
			// ECHILD: already collected elsewhere, nothing to report.
			delete(r.pids, pid)
		case wpid == pid:
			report(pid, statusFromWaitStatus(ws))
			delete(r.pids, pid)
		}
	}
}

// KillAll force-kills every outstanding child and empties the registry. Used
// when the shell is exiting.
func (r *Registry) KillAll() {
	for pid := range r.pids {
		_ = unix.Kill(pid, unix.SIGKILL)
		delete(r.pids, pid)
	}
}
