package broker

import (
	"net"
	"strconv"
	"strings"

	"github.com/shuldan/queues/pkg/contracts"
	"github.com/shuldan/queues/pkg/logger"
	"github.com/shuldan/queues/pkg/queue"
)

const (
	DriverName     = "broker"
	DefaultServer  = "gearman"
	DefaultMaxWait = 5
)

func init() {
	queue.Register(DriverName, factory)
}

// Settings is the "broker" driver section.
type Settings struct {
	Server  string   `validate:"required"`
	Servers []string `validate:"dive,hostname_port"`
	MaxWait int      `validate:"gte=0"`
}

type serverList struct {
	Servers []string `validate:"dive,hostname_port"`
}

// Driver opens broker queues on one job server.
type Driver struct {
	server  JobServer
	addrs   []string
	cfg     contracts.Config
	maxWait int
	logger  contracts.Logger
}

type DriverOption func(*Driver)

// WithMaxWait bounds how many times Get waits on a slow server before
// failing with ErrWaitTimeout.
func WithMaxWait(n int) DriverOption {
	return func(d *Driver) {
		if n >= 0 {
			d.maxWait = n
		}
	}
}

func WithLogger(l contracts.Logger) DriverOption {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithServerConfig passes job server specific settings, such as redis
// credentials, to every client and worker the driver builds.
func WithServerConfig(cfg contracts.Config) DriverOption {
	return func(d *Driver) {
		d.cfg = cfg
	}
}

// NewDriver builds a driver for server. addrs is a comma separated
// host[:port] list; an empty list means the local host.
func NewDriver(server JobServer, addrs string, opts ...DriverOption) *Driver {
	d := &Driver{
		server:  server,
		addrs:   ParseServers(addrs, server.DefaultPort()),
		maxWait: DefaultMaxWait,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func factory(cfg contracts.Config, log contracts.Logger) (queue.Driver, error) {
	name := cfg.GetString("server", DefaultServer)
	server, ok := lookupServer(name)
	if !ok {
		return nil, ErrUnknownServer.WithDetail("server", name)
	}

	settings := Settings{
		Server:  name,
		Servers: ParseServers(cfg.GetString("servers"), server.DefaultPort()),
		MaxWait: cfg.GetInt("max_wait", DefaultMaxWait),
	}
	if err := queue.ValidateConfig(DriverName, &settings); err != nil {
		return nil, err
	}

	d := NewDriver(server, "", WithLogger(log), WithMaxWait(settings.MaxWait), WithServerConfig(cfg))
	d.addrs = settings.Servers
	return d, nil
}

// Open accepts per-queue "servers" and "max_wait" overrides.
func (d *Driver) Open(name string, cfg contracts.Config) (contracts.Queue, error) {
	q := &Queue{
		Base:    queue.NewBase(name, d.logger),
		server:  d.server,
		addrs:   d.addrs,
		cfg:     d.cfg,
		maxWait: d.maxWait,
	}
	if cfg == nil {
		return q, nil
	}

	if cfg.Has("servers") {
		q.addrs = ParseServers(cfg.GetString("servers"), d.server.DefaultPort())
		if err := queue.ValidateConfig(DriverName, &serverList{Servers: q.addrs}); err != nil {
			return nil, err
		}
	}
	if cfg.Has("max_wait") {
		q.maxWait = cfg.GetInt("max_wait")
		if q.maxWait < 0 {
			return nil, queue.ErrInvalidDriverConfig.
				WithDetail("driver", DriverName).
				WithDetail("reason", "max_wait must not be negative")
		}
	}
	return q, nil
}

// ParseServers splits a comma separated server list and adds defaultPort
// to entries without a port. With a zero defaultPort it returns nil, and
// an empty list becomes the local host.
func ParseServers(list string, defaultPort int) []string {
	if defaultPort == 0 {
		return nil
	}
	port := strconv.Itoa(defaultPort)

	var addrs []string
	for _, s := range strings.Split(list, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(s); err != nil {
			s = net.JoinHostPort(strings.Trim(s, "[]"), port)
		}
		addrs = append(addrs, s)
	}
	if len(addrs) == 0 {
		addrs = []string{net.JoinHostPort("127.0.0.1", port)}
	}
	return addrs
}
