package cli

import (
	"context"
	"io"

	"github.com/shuldan/queues/pkg/contracts"
)

type CLI struct {
	registry contracts.CliRegistry
	executor *cmdExecutor
}

var _ contracts.Cli = (*CLI)(nil)

// New builds a CLI over registry and registers the help command on it.
// A nil registry gets a fresh one.
func New(registry contracts.CliRegistry) (*CLI, error) {
	if registry == nil {
		registry = NewRegistry()
	}

	c := &CLI{
		registry: registry,
		executor: newExecutor(newParser(registry)),
	}
	if _, ok := registry.Get("help"); !ok {
		if err := registry.Register(NewHelpCommand(registry)); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *CLI) Register(cmd contracts.CliCommand) error {
	return c.registry.Register(cmd)
}

func (c *CLI) Run(ctx contracts.CliContext) error {
	return c.executor.Execute(ctx)
}

// Exec runs args against the registered commands.
func (c *CLI) Exec(ctx context.Context, input io.Reader, output io.Writer, args []string) error {
	return c.Run(NewContext(ctx, input, output, args))
}
