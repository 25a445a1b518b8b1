package cli

import (
	"context"
	"io"

	"github.com/shuldan/queues/pkg/contracts"
)

type cmdContext struct {
	ctx    context.Context
	input  io.Reader
	output io.Writer
	args   []string
}

func NewContext(ctx context.Context, input io.Reader, output io.Writer, args []string) contracts.CliContext {
	if ctx == nil {
		ctx = context.Background()
	}
	argsCopy := make([]string, len(args))
	copy(argsCopy, args)

	return &cmdContext{
		ctx:    ctx,
		input:  input,
		output: output,
		args:   argsCopy,
	}
}

func (c *cmdContext) Context() context.Context {
	return c.ctx
}

func (c *cmdContext) Input() io.Reader {
	return c.input
}

func (c *cmdContext) Output() io.Writer {
	return c.output
}

func (c *cmdContext) Args() []string {
	argsCopy := make([]string, len(c.args))
	copy(argsCopy, c.args)

	return argsCopy
}
