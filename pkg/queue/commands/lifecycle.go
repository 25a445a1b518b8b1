package commands

import (
	"context"
	"flag"
	"fmt"

	"github.com/shuldan/queues/pkg/contracts"
)

type Create struct{ base }

func NewCreate(open Opener) *Create {
	return &Create{base{open: open}}
}

func (c *Create) Name() string        { return "create" }
func (c *Create) Description() string { return "Create the queue resource" }

func (c *Create) Configure(flags *flag.FlagSet) { c.configure(flags) }

func (c *Create) Execute(ctx contracts.CliContext) error {
	return c.withQueue(ctx.Context(), func(ctx context.Context, _ *Runtime, q contracts.Queue) error {
		return q.Create(ctx)
	})
}

type Destroy struct{ base }

func NewDestroy(open Opener) *Destroy {
	return &Destroy{base{open: open}}
}

func (d *Destroy) Name() string        { return "destroy" }
func (d *Destroy) Description() string { return "Destroy the queue and every item in it" }

func (d *Destroy) Configure(flags *flag.FlagSet) { d.configure(flags) }

func (d *Destroy) Execute(ctx contracts.CliContext) error {
	return d.withQueue(ctx.Context(), func(ctx context.Context, _ *Runtime, q contracts.Queue) error {
		return q.Destroy(ctx)
	})
}

type Exists struct{ base }

func NewExists(open Opener) *Exists {
	return &Exists{base{open: open}}
}

func (e *Exists) Name() string        { return "exists" }
func (e *Exists) Description() string { return "Print whether the queue resource exists" }

func (e *Exists) Configure(flags *flag.FlagSet) { e.configure(flags) }

func (e *Exists) Execute(cliCtx contracts.CliContext) error {
	return e.withQueue(cliCtx.Context(), func(ctx context.Context, _ *Runtime, q contracts.Queue) error {
		ok, err := q.Exists(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cliCtx.Output(), ok)
		return err
	})
}
