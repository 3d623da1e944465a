package core

import (
	"io"
	"os"

	"github.com/abiosoft/readline"
	"github.com/fatih/color"

	"smallsh/core/config"
	"smallsh/core/logger"
	"smallsh/core/sigctl"
)

// EnvHome names the variable consulted by the bare `cd` builtin.
const EnvHome = "HOME"

// Shell is one interactive session: signal controller, parser, executor and
// the line reader, composed by Run.
type Shell struct {
	parser   *Parser
	exec     *Executor
	readline *readline.Instance
	signals  *sigctl.Controller
	log      *logger.SessionLogger

	out    io.Writer
	prompt string
	quit   bool
}

// NewShell builds a session from the configuration. The signal dispositions
// are installed here and removed by Close.
func NewShell(cfg *config.Configuration, log *logger.SessionLogger) (*Shell, error) {
	if log == nil {
		log = logger.NewNopLogRecorder().NewSession()
	}

	signals := sigctl.Start(os.Stdout, log.ModeToggle)

	rl, err := readline.NewEx(&readline.Config{
		Prompt: cfg.Prompt,
	})
	if err != nil {
		signals.Stop()
		return nil, err
	}

	shell := &Shell{
		parser:   NewParser(os.Getpid(), signals.ForegroundOnly),
		exec:     NewExecutor(os.Stdout, NewRegistry(), signals, log),
		readline: rl,
		signals:  signals,
		log:      log,
		out:      os.Stdout,
		prompt:   renderPrompt(cfg),
	}

	log.SessionStart(os.Getpid())
	return shell, nil
}

var promptColors = map[string]color.Attribute{
	"black":   color.FgBlack,
	"red":     color.FgRed,
	"green":   color.FgGreen,
	"yellow":  color.FgYellow,
	"blue":    color.FgBlue,
	"magenta": color.FgMagenta,
	"cyan":    color.FgCyan,
	"white":   color.FgWhite,
}

func renderPrompt(cfg *config.Configuration) string {
	if attr, ok := promptColors[cfg.PromptColor]; ok {
		return color.New(attr).Sprint(cfg.Prompt)
	}
	return cfg.Prompt
}

// Run drives the main loop: reap, prompt, read, parse, execute. It returns
// when the exit builtin is given or stdin reaches EOF, after force-killing
// any surviving background children.
func (s *Shell) Run() {
	defer s.exec.Shutdown()

	for {
		s.exec.Reap()

		s.readline.SetPrompt(s.prompt)
		line, err := s.readline.Readline()

		switch {
		case err == io.EOF:
			// EOF is an implicit exit; without this the loop would spin.
			return

		case err == readline.ErrInterrupt:
			// SIGINT is ignored by the shell; only a foreground child may
			// be interrupted.
			continue

		case err != nil:
			continue
		}

		if !s.Execute(s.parser.Parse(line)) {
			return
		}
	}
}

// Execute dispatches one plan. It returns false when the shell should stop.
func (s *Shell) Execute(plan *Plan) bool {
	if plan.Empty() {
		return true
	}

	if builtin, ok := AllBuiltins[plan.Argv[0]]; ok {
		s.log.CommandRun(plan.Argv, false, true, 0)
		builtin.Main(s, plan.Argv)
		return !s.quit
	}

	s.exec.Launch(plan)
	return true
}

// Close releases the line reader and restores signal dispositions.
func (s *Shell) Close() error {
	s.signals.Stop()
	return s.readline.Close()
}
