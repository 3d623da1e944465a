package core

const (
	// MaxLineLen is the longest meaningful input line; longer lines are
	// truncated to this bound before parsing.
	MaxLineLen = 2048

	// MaxArgs caps the number of argv entries in a plan.
	MaxArgs = 512
)

// Plan is the parsed, normalized representation of one input line. It is
// produced by the Parser and consumed once by the Executor.
//
// Argv never contains empty strings or the redirection operators. An empty
// plan (len(Argv) == 0) is a valid no-op.
type Plan struct {
	Argv       []string
	InputFile  string
	OutputFile string
	Background bool
}

// Empty reports whether the plan is a no-op.
func (p *Plan) Empty() bool {
	return len(p.Argv) == 0
}
