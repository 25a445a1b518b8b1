// Package redis runs broker jobs over Redis streams. A function is a
// stream; workers read it through one consumer group and acknowledge and
// delete a job on completion. Jobs left unacknowledged longer than the
// processing timeout are claimed by the next worker.
package redis

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/shuldan/queues/pkg/contracts"
	"github.com/shuldan/queues/pkg/queue/broker"
)

const (
	Name        = "redis"
	DefaultPort = 6379
)

func init() {
	broker.RegisterServer(Name, NewServer(nil))
}

// Connect builds the Redis client for a set of addresses.
type Connect func(addrs []string, cfg contracts.Config) redis.UniversalClient

type Server struct {
	connect Connect
	opts    []Option
}

var _ broker.JobServer = (*Server)(nil)

// NewServer uses connect to reach Redis; nil means DefaultConnect. opts
// apply before the driver settings.
func NewServer(connect Connect, opts ...Option) *Server {
	if connect == nil {
		connect = DefaultConnect
	}
	return &Server{connect: connect, opts: opts}
}

// DefaultConnect reads username, password and db from the driver section.
func DefaultConnect(addrs []string, cfg contracts.Config) redis.UniversalClient {
	opts := &redis.UniversalOptions{Addrs: addrs}
	if cfg != nil {
		opts.Username = cfg.GetString("username", "")
		opts.Password = cfg.GetString("password", "")
		opts.DB = cfg.GetInt("db", 0)
	}
	return redis.NewUniversalClient(opts)
}

func (s *Server) DefaultPort() int {
	return DefaultPort
}

func (s *Server) config(cfg contracts.Config) *config {
	c := defaultConfig()
	for _, opt := range append(append([]Option(nil), s.opts...), optionsFromConfig(cfg)...) {
		opt(c)
	}
	return c
}

func (s *Server) NewClient(addrs []string, cfg contracts.Config) (broker.Client, error) {
	if len(addrs) == 0 {
		return nil, broker.ErrUnavailable.WithDetail("servers", "")
	}
	return &client{client: s.connect(addrs, cfg), config: s.config(cfg)}, nil
}

func (s *Server) NewWorker(addrs []string, cfg contracts.Config) (broker.Worker, error) {
	if len(addrs) == 0 {
		return nil, broker.ErrUnavailable.WithDetail("servers", "")
	}
	c := s.config(cfg)
	return &worker{
		client:   s.connect(addrs, cfg),
		config:   c,
		consumer: newConsumerID(c.consumerPrefix),
		funcs:    make(map[string]broker.JobFunc),
		groups:   make(map[string]bool),
	}, nil
}

func (c *config) stream(function string) string {
	return fmt.Sprintf(c.streamKeyFormat, function)
}
