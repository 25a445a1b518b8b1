package gearman

import (
	"bufio"
	"context"
	"net"
	"sync"
	"time"

	"github.com/shuldan/queues/pkg/queue/broker"
)

type result struct {
	p   packet
	err error
}

// conn is one TCP connection to a job server. A reader goroutine turns
// the stream into packets so callers can wait for them with a timeout.
type conn struct {
	addr    string
	nc      net.Conn
	timeout time.Duration

	wmu       sync.Mutex
	in        chan result
	done      chan struct{}
	closeOnce sync.Once

	// worker state: a GRAB is outstanding, and a packet Wait already read.
	pending bool
	stash   *result
}

func dial(addr string, timeout time.Duration) (*conn, error) {
	nc, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	c := &conn{
		addr:    addr,
		nc:      nc,
		timeout: timeout,
		in:      make(chan result, 8),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *conn) readLoop() {
	r := bufio.NewReader(c.nc)
	for {
		p, err := readPacket(r)
		select {
		case c.in <- result{p: p, err: err}:
		case <-c.done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (c *conn) send(typ packetType, args ...[]byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	select {
	case <-c.done:
		return broker.ErrClosed.WithDetail("addr", c.addr)
	default:
	}
	if c.timeout > 0 {
		_ = c.nc.SetWriteDeadline(time.Now().Add(c.timeout))
	}
	_, err := c.nc.Write(encodePacket(reqMagic, typ, args...))
	return err
}

// receive returns the next packet, or ok=false when none arrived within
// timeout.
func (c *conn) receive(ctx context.Context, timeout time.Duration) (p packet, ok bool, err error) {
	if c.stash != nil {
		r := *c.stash
		c.stash = nil
		return r.p, true, r.err
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case r := <-c.in:
		return r.p, true, r.err
	case <-t.C:
		return packet{}, false, nil
	case <-ctx.Done():
		return packet{}, false, ctx.Err()
	case <-c.done:
		return packet{}, true, broker.ErrClosed.WithDetail("addr", c.addr)
	}
}

func (c *conn) close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.nc.Close()
	})
	return err
}
