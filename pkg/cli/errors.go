package cli

import "github.com/shuldan/queues/pkg/errors"

var newCliCode = errors.WithPrefix("CLI")

var (
	ErrNoCommandSpecified  = newCliCode().New("no command specified")
	ErrUnknownCommand      = newCliCode().New("unknown command {{.command}}")
	ErrCommandValidation   = newCliCode().New("command validation failed for {{.command}}")
	ErrCommandExecution    = newCliCode().New("command execution failed for {{.command}}")
	ErrCommandRegistration = newCliCode().New("command registration failed for {{.command}}")
	ErrHelpCommandNotFound = newCliCode().New("help command not found for {{.command}}")
	ErrFlagParse           = newCliCode().New("flag parsing failed for command {{.command}}")
)
