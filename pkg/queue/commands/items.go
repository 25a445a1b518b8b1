package commands

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/shuldan/queues/pkg/contracts"
	"github.com/shuldan/queues/pkg/queue"
)

// itemView is how an item is printed. Handlers that are not plain values
// are shown through their Handle method or fmt.
type itemView struct {
	ID      any            `json:"id"`
	Handler any            `json:"handler"`
	Data    map[string]any `json:"data"`
}

func printItem(w io.Writer, item *queue.Item) error {
	view := itemView{ID: item.ID, Handler: item.Handler, Data: item.Data}
	switch h := item.Handler.(type) {
	case string, int64, int:
	case interface{ Handle() string }:
		view.Handler = h.Handle()
	default:
		view.Handler = fmt.Sprint(h)
	}
	return json.NewEncoder(w).Encode(view)
}

type Add struct {
	base
	data string
}

func NewAdd(open Opener) *Add {
	return &Add{base: base{open: open}}
}

func (a *Add) Name() string        { return "add" }
func (a *Add) Description() string { return "Push an item and print its id" }

func (a *Add) Configure(flags *flag.FlagSet) {
	a.configure(flags)
	flags.StringVar(&a.data, "data", "{}", "Item data as a JSON object")
}

func (a *Add) Validate(ctx contracts.CliContext) error {
	if err := a.base.Validate(ctx); err != nil {
		return err
	}
	if _, err := queue.DecodeData([]byte(a.data)); err != nil {
		return ErrInvalidData.WithDetail("reason", err.Error()).WithCause(err)
	}
	return nil
}

func (a *Add) Execute(cliCtx contracts.CliContext) error {
	data, err := queue.DecodeData([]byte(a.data))
	if err != nil {
		return err
	}
	return a.withQueue(cliCtx.Context(), func(ctx context.Context, _ *Runtime, q contracts.Queue) error {
		item := queue.NewItem(data)
		ok, err := q.Add(ctx, item)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotDone.WithDetail("queue", q.Name()).WithDetail("op", "add")
		}
		_, err = fmt.Fprintln(cliCtx.Output(), item.ID)
		return err
	})
}

type Get struct{ base }

func NewGet(open Opener) *Get {
	return &Get{base{open: open}}
}

func (g *Get) Name() string { return "get" }

func (g *Get) Description() string {
	return "Print the next available item as JSON without removing it"
}

func (g *Get) Configure(flags *flag.FlagSet) { g.configure(flags) }

func (g *Get) Execute(cliCtx contracts.CliContext) error {
	return g.withQueue(cliCtx.Context(), func(ctx context.Context, _ *Runtime, q contracts.Queue) error {
		item, err := q.Get(ctx)
		if err != nil {
			return err
		}
		if item == nil {
			_, err = fmt.Fprintln(cliCtx.Output(), "queue is empty")
			return err
		}
		return printItem(cliCtx.Output(), item)
	})
}

type Remove struct {
	base
	handler string
}

func NewRemove(open Opener) *Remove {
	return &Remove{base: base{open: open}}
}

func (r *Remove) Name() string        { return "remove" }
func (r *Remove) Description() string { return "Remove an item by the handler printed by get" }

func (r *Remove) Configure(flags *flag.FlagSet) {
	r.configure(flags)
	flags.StringVar(&r.handler, "handler", "", "Handler of the item")
}

func (r *Remove) Validate(ctx contracts.CliContext) error {
	if err := r.base.Validate(ctx); err != nil {
		return err
	}
	if r.handler == "" {
		return ErrMissingHandler
	}
	return nil
}

func (r *Remove) Execute(cliCtx contracts.CliContext) error {
	return r.withQueue(cliCtx.Context(), func(ctx context.Context, _ *Runtime, q contracts.Queue) error {
		ok, err := q.Remove(ctx, parseHandler(r.handler))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cliCtx.Output(), ok)
		return err
	})
}

// parseHandler turns row ids back into integers; anything else, such as a
// receipt handle, stays a string.
func parseHandler(s string) any {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id
	}
	return s
}
