package cli

import (
	"flag"

	"github.com/shuldan/queues/pkg/contracts"
)

type testCommand struct {
	name        string
	description string
	group       string
	validateErr error
	executeErr  error

	verbose   bool
	validated bool
	executed  bool
	args      []string
}

func (t *testCommand) Name() string        { return t.name }
func (t *testCommand) Description() string { return t.description }
func (t *testCommand) Group() string       { return t.group }

func (t *testCommand) Configure(flags *flag.FlagSet) {
	flags.BoolVar(&t.verbose, "verbose", false, "Verbose output")
}

func (t *testCommand) Validate(contracts.CliContext) error {
	t.validated = true
	return t.validateErr
}

func (t *testCommand) Execute(ctx contracts.CliContext) error {
	t.executed = true
	t.args = ctx.Args()
	return t.executeErr
}
