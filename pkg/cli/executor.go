package cli

import "github.com/shuldan/queues/pkg/contracts"

type cmdExecutor struct {
	parser *cmdParser
}

func newExecutor(parser *cmdParser) *cmdExecutor {
	return &cmdExecutor{parser: parser}
}

func (e *cmdExecutor) Execute(cmdCtx contracts.CliContext) error {
	if err := cmdCtx.Context().Err(); err != nil {
		return err
	}

	args := cmdCtx.Args()
	if len(args) == 0 {
		return ErrNoCommandSpecified
	}

	parsed, err := e.parser.Parse(args, cmdCtx.Output())
	if err != nil {
		return err
	}

	parsedCtx := NewContext(cmdCtx.Context(), cmdCtx.Input(), cmdCtx.Output(), parsed.Args)

	if err = parsed.Command.Validate(parsedCtx); err != nil {
		return ErrCommandValidation.WithDetail("command", parsed.Name).WithCause(err)
	}

	if err := parsedCtx.Context().Err(); err != nil {
		return err
	}

	if err = parsed.Command.Execute(parsedCtx); err != nil {
		return ErrCommandExecution.WithDetail("command", parsed.Name).WithCause(err)
	}
	return nil
}
