package cli

import (
	"flag"
	"io"

	"github.com/shuldan/queues/pkg/contracts"
)

type parsedCommand struct {
	Name    string
	Args    []string
	Command contracts.CliCommand
}

type cmdParser struct {
	registry contracts.CliRegistry
}

func newParser(registry contracts.CliRegistry) *cmdParser {
	return &cmdParser{registry: registry}
}

// Parse resolves args[0] to a command and parses the rest as its flags.
// Positional arguments left after the flags are kept in Args.
func (p *cmdParser) Parse(args []string, output io.Writer) (*parsedCommand, error) {
	if len(args) == 0 {
		return nil, ErrNoCommandSpecified
	}

	name := args[0]
	command, exists := p.registry.Get(name)
	if !exists {
		return nil, ErrUnknownCommand.WithDetail("command", name)
	}

	flagSet := flag.NewFlagSet(name, flag.ContinueOnError)
	flagSet.SetOutput(output)
	command.Configure(flagSet)

	if err := flagSet.Parse(args[1:]); err != nil {
		return nil, ErrFlagParse.WithDetail("command", name).WithCause(err)
	}

	return &parsedCommand{
		Name:    name,
		Args:    flagSet.Args(),
		Command: command,
	}, nil
}
