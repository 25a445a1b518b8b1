package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/shuldan/queues/pkg/cli"
	"github.com/shuldan/queues/pkg/errors"
	"github.com/shuldan/queues/pkg/queue/commands"

	_ "github.com/shuldan/queues/pkg/queue/broker"
	_ "github.com/shuldan/queues/pkg/queue/broker/gearman"
	_ "github.com/shuldan/queues/pkg/queue/broker/memory"
	_ "github.com/shuldan/queues/pkg/queue/broker/redis"
	_ "github.com/shuldan/queues/pkg/queue/sqs"
	_ "github.com/shuldan/queues/pkg/queue/table"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdin, os.Stdout, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for configuration and usage mistakes and 1 otherwise.
func exitCode(err error) int {
	if errors.Is(err, errors.ErrConfiguration) || errors.Is(err, cli.ErrFlagParse) || errors.Is(err, cli.ErrUnknownCommand) {
		return 2
	}
	return 1
}

func run(ctx context.Context, in io.Reader, out io.Writer, args []string) error {
	registry := cli.NewRegistry()
	if err := registry.Register(cli.NewHelpCommand(registry).WithProgram("queuectl")); err != nil {
		return err
	}
	c, err := cli.New(registry)
	if err != nil {
		return err
	}
	if err := commands.Register(c, commands.FromConfig(commands.DefaultEnvPrefix)); err != nil {
		return err
	}

	if len(args) == 0 {
		args = []string{"help"}
	}
	return c.Exec(ctx, in, out, args)
}
