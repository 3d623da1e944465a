package core

import (
	"fmt"
	"os"
)

// AllBuiltins holds a list of all registered shell builtins. Builtins run in
// the shell process and therefore ignore a plan's redirection and background
// fields.
var AllBuiltins = make(map[string]ShellBuiltin)

type ShellBuiltin interface {
	Main(s *Shell, args []string) int
}

type ShellBuiltinFunc func(s *Shell, args []string) int

func (f ShellBuiltinFunc) Main(s *Shell, args []string) int {
	return f(s, args)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

// Exit stops the main loop. The loop then force-kills every remaining
// background child.
func Exit(s *Shell, args []string) int {
	s.quit = true
	return 0
}

// Cd is the cd shell builtin: one argument changes to that path, none changes
// to $HOME. Failures are silent.
func Cd(s *Shell, args []string) int {
	dir := os.Getenv(EnvHome)
	if len(args) > 1 {
		dir = args[1]
	}
	_ = os.Chdir(dir)
	return 0
}

// LastStatus prints the termination status of the most recent foreground
// child.
func LastStatus(s *Shell, args []string) int {
	fmt.Fprintf(s.out, "%s\n", s.exec.LastStatus())
	return 0
}

func init() {
	AllBuiltins["exit"] = ShellBuiltinFunc(Exit)
	AllBuiltins["cd"] = ShellBuiltinFunc(Cd)
	AllBuiltins["status"] = ShellBuiltinFunc(LastStatus)
}
