package logger

import (
	"encoding/json"
	"io"
)

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(e *Event)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var e Event
		if err := decoder.Decode(&e); err != nil {
			return err
		}
		handler(&e)
	}
	return nil
}

// Report summarizes a session log.
type Report struct {
	Events int `json:"events"`

	Commands           int            `json:"commands"`
	BackgroundCommands int            `json:"background_commands"`
	CommandCounts      map[string]int `json:"command_counts"`

	SignalTerminations int `json:"signal_terminations"`
	ModeToggles        int `json:"mode_toggles"`
}

// Update folds one event into the report.
func (r *Report) Update(e *Event) {
	r.Events++

	switch {
	case e.CommandRun != nil:
		r.Commands++
		if e.CommandRun.Background {
			r.BackgroundCommands++
		}
		if len(e.CommandRun.Argv) > 0 {
			if r.CommandCounts == nil {
				r.CommandCounts = make(map[string]int)
			}
			r.CommandCounts[e.CommandRun.Argv[0]]++
		}
	case e.CommandDone != nil:
		if e.CommandDone.Signaled {
			r.SignalTerminations++
		}
	case e.ModeToggle != nil:
		r.ModeToggles++
	}
}
