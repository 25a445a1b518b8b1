// Package commands implements the queuectl command set on top of a
// queue.Manager built from configuration.
package commands

import (
	"context"
	"flag"

	"github.com/shuldan/queues/pkg/config"
	"github.com/shuldan/queues/pkg/contracts"
	"github.com/shuldan/queues/pkg/errors"
	"github.com/shuldan/queues/pkg/logger"
	"github.com/shuldan/queues/pkg/queue"
)

const (
	DefaultConfigPath = "queues.yaml"
	DefaultEnvPrefix  = "QUEUES_"
)

// Runtime is what a command works against.
type Runtime struct {
	Manager *queue.Manager
	Logger  contracts.Logger
}

// Opener builds a Runtime from the configuration file at path. opts are
// applied to the manager after the configuration.
type Opener func(path string, opts ...queue.ManagerOption) (*Runtime, error)

// FromConfig loads path layered under environment variables carrying
// envPrefix. Logs go to stderr unless a "logger" section says otherwise.
func FromConfig(envPrefix string) Opener {
	return func(path string, opts ...queue.ManagerOption) (*Runtime, error) {
		var paths []string
		if path != "" {
			paths = append(paths, path)
		}
		cfg, err := config.Load(envPrefix, paths...)
		if err != nil {
			return nil, err
		}

		logCfg, ok := cfg.GetSub("logger")
		if !ok {
			logCfg = config.NewMapConfig(map[string]any{"output": "stderr"})
		}
		log, err := logger.NewFromConfig(logCfg)
		if err != nil {
			return nil, err
		}

		m, err := queue.NewManagerFromConfig(cfg, log, opts...)
		if err != nil {
			return nil, err
		}
		return &Runtime{Manager: m, Logger: log}, nil
	}
}

// All returns every queue command bound to open.
func All(open Opener) []contracts.CliCommand {
	return []contracts.CliCommand{
		NewCreate(open),
		NewDestroy(open),
		NewExists(open),
		NewAdd(open),
		NewGet(open),
		NewRemove(open),
		NewConsume(open),
	}
}

// Register adds All(open) to c.
func Register(c contracts.Cli, open Opener) error {
	for _, cmd := range All(open) {
		if err := c.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}

// base carries the flags every queue command shares.
type base struct {
	open       Opener
	configPath string
	queueName  string
}

func (b *base) Group() string {
	return contracts.QueueCliGroup
}

func (b *base) configure(flags *flag.FlagSet) {
	flags.StringVar(&b.configPath, "config", DefaultConfigPath, "Path to the configuration file")
	flags.StringVar(&b.queueName, "queue", "", "Name of the queue")
}

func (b *base) Validate(contracts.CliContext) error {
	if b.queueName == "" {
		return ErrMissingQueue
	}
	return nil
}

// withQueue opens the runtime, resolves the queue and closes the manager
// once fn returns. Queues missing from the configuration fall back to the
// default driver.
func (b *base) withQueue(
	ctx context.Context,
	fn func(ctx context.Context, rt *Runtime, q contracts.Queue) error,
	opts ...queue.ManagerOption,
) (err error) {
	rt, err := b.open(b.configPath, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Manager.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	q, err := resolve(rt.Manager, b.queueName)
	if err != nil {
		return err
	}
	return fn(ctx, rt, q)
}

func resolve(m *queue.Manager, name string) (contracts.Queue, error) {
	q, err := m.GetQueue(name)
	if err == nil || !errors.Is(err, queue.ErrQueueNotFound) {
		return q, err
	}
	if err := m.AddQueue(name, nil); err != nil {
		return nil, err
	}
	return m.GetQueue(name)
}
