package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"
)

// Event is the envelope for a single log line. Exactly one of the pointer
// fields is set.
type Event struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	SessionID       string `json:"session_id,omitempty"`

	SessionStart *SessionStart `json:"session_start,omitempty"`
	CommandRun   *CommandRun   `json:"command_run,omitempty"`
	CommandDone  *CommandDone  `json:"command_done,omitempty"`
	ModeToggle   *ModeToggle   `json:"mode_toggle,omitempty"`
}

// SessionStart marks the beginning of an interactive session.
type SessionStart struct {
	ShellPid int `json:"shell_pid"`
}

// CommandRun records one dispatched command plan.
type CommandRun struct {
	Argv       []string `json:"argv"`
	Background bool     `json:"background,omitempty"`
	Builtin    bool     `json:"builtin,omitempty"`
	Pid        int      `json:"pid,omitempty"`
}

// CommandDone records the termination of a child process.
type CommandDone struct {
	Pid        int  `json:"pid"`
	Background bool `json:"background,omitempty"`
	Signaled   bool `json:"signaled,omitempty"`
	// Value is the exit code, or the signal number when Signaled is set.
	Value int `json:"value"`
}

// ModeToggle records a SIGTSTP driven foreground-only mode change.
type ModeToggle struct {
	ForegroundOnly bool `json:"foreground_only"`
}

// LogRecorder is a callback that stores events in an external datastore.
type LogRecorder func(e *Event) error

// Logger captures interaction events for later reporting.
type Logger struct {
	mu     sync.Mutex
	record LogRecorder
}

// NewJsonLinesLogRecorder creates a Logger that exports logs in newline
// delimited JSON object format.
func NewJsonLinesLogRecorder(w io.Writer) *Logger {
	return &Logger{
		record: func(e *Event) error {
			entry, err := json.Marshal(e)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(w, string(entry))
			return err
		},
	}
}

// NewNopLogRecorder creates a Logger that discards everything.
func NewNopLogRecorder() *Logger {
	return &Logger{record: func(*Event) error { return nil }}
}

func (l *Logger) recordEvent(e *Event) error {
	e.TimestampMicros = time.Now().UnixNano() / int64(time.Microsecond)

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.record(e)
}

// NewSession creates a logger with an attached session ID.
func (l *Logger) NewSession() *SessionLogger {
	return &SessionLogger{logger: l, sessionID: fmt.Sprintf("%d", rand.Uint64())}
}

// SessionLogger logs events with a shared session ID. Its methods are safe
// for concurrent use; mode toggles arrive from the signal watcher goroutine.
type SessionLogger struct {
	logger    *Logger
	sessionID string
}

func (l *SessionLogger) record(e *Event) {
	e.SessionID = l.sessionID
	// Logging never interrupts the shell.
	_ = l.logger.recordEvent(e)
}

// SessionStart records the start of the session.
func (l *SessionLogger) SessionStart(shellPid int) {
	l.record(&Event{SessionStart: &SessionStart{ShellPid: shellPid}})
}

// CommandRun records a dispatched command.
func (l *SessionLogger) CommandRun(argv []string, background, builtin bool, pid int) {
	l.record(&Event{CommandRun: &CommandRun{
		Argv:       argv,
		Background: background,
		Builtin:    builtin,
		Pid:        pid,
	}})
}

// CommandDone records a child's termination.
func (l *SessionLogger) CommandDone(pid int, background, signaled bool, value int) {
	l.record(&Event{CommandDone: &CommandDone{
		Pid:        pid,
		Background: background,
		Signaled:   signaled,
		Value:      value,
	}})
}

// ModeToggle records a foreground-only mode change.
func (l *SessionLogger) ModeToggle(foregroundOnly bool) {
	l.record(&Event{ModeToggle: &ModeToggle{ForegroundOnly: foregroundOnly}})
}
