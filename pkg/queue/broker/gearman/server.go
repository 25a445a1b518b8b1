// Package gearman speaks the gearman job server binary protocol: enough of
// it to submit background jobs and to pull them as a worker.
package gearman

import (
	"strings"
	"time"

	"github.com/shuldan/queues/pkg/contracts"
	"github.com/shuldan/queues/pkg/queue/broker"
)

const (
	Name                = "gearman"
	DefaultPort         = 4730
	DefaultTimeout      = 5 * time.Second
	DefaultPollInterval = 200 * time.Millisecond
)

func init() {
	broker.RegisterServer(Name, Server{})
}

// Server is the gearman broker.JobServer. Settings read from the driver
// config: timeout (dial, write and submit answer) and poll_interval (how
// long a worker waits for a GRAB answer before reporting io wait).
type Server struct{}

var _ broker.JobServer = Server{}

type options struct {
	timeout      time.Duration
	pollInterval time.Duration
}

func optionsFrom(cfg contracts.Config) options {
	o := options{timeout: DefaultTimeout, pollInterval: DefaultPollInterval}
	if cfg == nil {
		return o
	}
	if d := cfg.GetDuration("timeout", DefaultTimeout); d > 0 {
		o.timeout = d
	}
	if d := cfg.GetDuration("poll_interval", DefaultPollInterval); d > 0 {
		o.pollInterval = d
	}
	return o
}

func (Server) DefaultPort() int {
	return DefaultPort
}

// NewClient connects lazily, on the first submission.
func (Server) NewClient(addrs []string, cfg contracts.Config) (broker.Client, error) {
	if len(addrs) == 0 {
		return nil, broker.ErrUnavailable.WithDetail("servers", "")
	}
	return &client{addrs: addrs, opts: optionsFrom(cfg)}, nil
}

func (Server) NewWorker(addrs []string, cfg contracts.Config) (broker.Worker, error) {
	if len(addrs) == 0 {
		return nil, broker.ErrUnavailable.WithDetail("servers", "")
	}
	return &worker{
		addrs: addrs,
		opts:  optionsFrom(cfg),
		funcs: make(map[string]broker.JobFunc),
		conns: make([]*conn, len(addrs)),
	}, nil
}

func unavailable(addrs []string, cause error) error {
	err := broker.ErrUnavailable.WithDetail("servers", strings.Join(addrs, ","))
	if cause != nil {
		return err.WithCause(cause)
	}
	return err
}
