package core

import (
	"strconv"
	"strings"
)

// Parser turns raw input lines into Plans. It is a pure transformation except
// for two narrow reads: the shell's own PID for `$$` expansion and the
// foreground-only flag for finalizing the background marker.
type Parser struct {
	pid            int
	foregroundOnly func() bool
}

// NewParser builds a parser. foregroundOnly may be nil, which means the flag
// is never set.
func NewParser(pid int, foregroundOnly func() bool) *Parser {
	if foregroundOnly == nil {
		foregroundOnly = func() bool { return false }
	}
	return &Parser{pid: pid, foregroundOnly: foregroundOnly}
}

// Token walk states for the semantic pass.
const (
	modeArg = iota
	modeExpectIn
	modeExpectOut
)

// Parse turns one input line into a Plan. It never fails: pathological input
// is truncated and parsed as received.
func (p *Parser) Parse(line string) *Plan {
	if len(line) > MaxLineLen {
		line = line[:MaxLineLen]
	}

	plan := &Plan{}

	// Comment lines produce the empty plan regardless of the rest.
	if strings.HasPrefix(strings.TrimLeft(line, " \t\n"), "#") {
		return plan
	}

	tokens := splitTokens(p.expandPID(line))

	// A bare `&` as the final token requests background execution. The
	// foreground-only flag downgrades the request here so the decision is
	// atomic with parsing.
	if n := len(tokens); n > 0 && tokens[n-1] == "&" {
		tokens = tokens[:n-1]
		plan.Background = !p.foregroundOnly()
	}

	mode := modeArg
	for _, tok := range tokens {
		switch {
		case tok == "<":
			mode = modeExpectIn
		case tok == ">":
			mode = modeExpectOut
		case mode == modeExpectIn:
			plan.InputFile = tok
			mode = modeArg
		case mode == modeExpectOut:
			plan.OutputFile = tok
			mode = modeArg
		default:
			if len(plan.Argv) < MaxArgs {
				plan.Argv = append(plan.Argv, tok)
			}
		}
	}

	return plan
}

// expandPID replaces every literal `$$` with the shell's PID in one
// left-to-right pass. A lone `$` is preserved verbatim.
func (p *Parser) expandPID(line string) string {
	if !strings.Contains(line, "$$") {
		return line
	}

	pid := strconv.Itoa(p.pid)

	var out strings.Builder
	for i := 0; i < len(line); i++ {
		if line[i] == '$' && i+1 < len(line) && line[i+1] == '$' {
			out.WriteString(pid)
			i++
			continue
		}
		out.WriteByte(line[i])
	}
	return out.String()
}

// splitTokens splits on runs of space or newline characters, dropping empty
// tokens. There is no quoting and no escaping.
func splitTokens(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\n'
	})
}
