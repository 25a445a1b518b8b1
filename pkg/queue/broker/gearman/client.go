package gearman

import (
	"context"
	"fmt"
	"sync"

	"github.com/shuldan/queues/pkg/errors"
	"github.com/shuldan/queues/pkg/queue/broker"
)

// client submits to one server at a time and moves on to the next one in
// the list when the connection fails.
type client struct {
	addrs []string
	opts  options

	mu   sync.Mutex
	conn *conn
	next int
}

func (c *client) SubmitBackground(ctx context.Context, function, unique string, workload []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for range c.addrs {
		conn, err := c.connect()
		if err != nil {
			return "", err
		}
		handle, err := c.submit(ctx, conn, function, unique, workload)
		if err == nil {
			return handle, nil
		}
		if errors.Is(err, broker.ErrJobFailed) || ctx.Err() != nil {
			return "", err
		}
		lastErr = err
		c.drop()
	}
	return "", unavailable(c.addrs, lastErr)
}

func (c *client) connect() (*conn, error) {
	if c.conn != nil {
		return c.conn, nil
	}
	var lastErr error
	for range c.addrs {
		addr := c.addrs[c.next%len(c.addrs)]
		conn, err := dial(addr, c.opts.timeout)
		if err == nil {
			c.conn = conn
			return conn, nil
		}
		lastErr = err
		c.next++
	}
	return nil, unavailable(c.addrs, lastErr)
}

func (c *client) drop() {
	if c.conn != nil {
		_ = c.conn.close()
		c.conn = nil
	}
	c.next++
}

func (c *client) submit(ctx context.Context, conn *conn, function, unique string, workload []byte) (string, error) {
	if err := conn.send(typeSubmitJobBg, []byte(function), []byte(unique), workload); err != nil {
		return "", err
	}
	for {
		p, ok, err := conn.receive(ctx, c.opts.timeout)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", broker.ErrProtocol.WithDetail("reason", "no JOB_CREATED from "+conn.addr)
		}
		switch p.typ {
		case typeJobCreated:
			return string(p.arg(0)), nil
		case typeError:
			return "", broker.ErrJobFailed.WithDetail("reason", fmt.Sprintf("%s: %s", p.arg(0), p.arg(1)))
		case typeNoop:
		default:
			return "", broker.ErrProtocol.WithDetail("reason", fmt.Sprintf("unexpected packet type %d", p.typ))
		}
	}
}

func (c *client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.close()
	c.conn = nil
	return err
}
