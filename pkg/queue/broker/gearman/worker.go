package gearman

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shuldan/queues/pkg/errors"
	"github.com/shuldan/queues/pkg/queue/broker"
)

// worker keeps one connection per server and asks each in turn for a job.
// A GRAB that is not answered within the poll interval stays outstanding;
// its answer is picked up by a later Wait or Work.
type worker struct {
	addrs []string
	opts  options

	mu    sync.Mutex
	funcs map[string]broker.JobFunc
	conns []*conn
}

func (w *worker) AddFunction(function string, fn broker.JobFunc) error {
	if function == "" || fn == nil {
		return broker.ErrProtocol.WithDetail("reason", "function name and callback are required")
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.funcs[function] = fn
	for i, c := range w.conns {
		if c == nil {
			continue
		}
		if err := c.send(typeCanDo, []byte(function)); err != nil {
			w.drop(i)
		}
	}
	return nil
}

func (w *worker) Work(ctx context.Context) (broker.Status, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.funcs) == 0 {
		return broker.StatusFailed, broker.ErrProtocol.WithDetail("reason", "no functions registered")
	}
	dialErr := w.connect()

	var (
		connected int
		waiting   bool
		lastErr   error
	)
	for i, c := range w.conns {
		if c == nil {
			continue
		}
		connected++

		status, err := w.grab(ctx, c)
		switch status {
		case broker.StatusSuccess:
			return status, nil
		case broker.StatusIOWait:
			waiting = true
		case broker.StatusFailed:
			lastErr = err
			if isConnError(ctx, err) {
				w.drop(i)
			}
		}
	}

	switch {
	case connected == 0:
		return broker.StatusFailed, unavailable(w.addrs, dialErr)
	case waiting:
		return broker.StatusIOWait, nil
	case lastErr != nil:
		return broker.StatusFailed, lastErr
	default:
		return broker.StatusNoJobs, nil
	}
}

// Wait blocks until an outstanding GRAB is answered or the poll interval
// passes. The answer is kept for the next Work.
func (w *worker) Wait(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, c := range w.conns {
		if c == nil || !c.pending || c.stash != nil {
			continue
		}
		p, ok, err := c.receive(ctx, w.opts.pollInterval)
		if ok {
			c.stash = &result{p: p, err: err}
			return nil
		}
		return err
	}

	t := time.NewTimer(w.opts.pollInterval)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *worker) grab(ctx context.Context, c *conn) (broker.Status, error) {
	if !c.pending {
		if err := c.send(typeGrabJobUniq); err != nil {
			return broker.StatusFailed, err
		}
		c.pending = true
	}

	for {
		p, ok, err := c.receive(ctx, w.opts.pollInterval)
		if err != nil {
			return broker.StatusFailed, err
		}
		if !ok {
			return broker.StatusIOWait, nil
		}

		switch p.typ {
		case typeNoop:
			continue
		case typeNoJob:
			c.pending = false
			return broker.StatusNoJobs, nil
		case typeJobAssignUniq:
			c.pending = false
			j := &job{
				conn:     c,
				handle:   string(p.arg(0)),
				function: string(p.arg(1)),
				unique:   string(p.arg(2)),
				workload: p.arg(3),
			}
			fn, ok := w.funcs[j.function]
			if !ok {
				return broker.StatusFailed, broker.ErrProtocol.WithDetail("reason", "job for unregistered function "+j.function)
			}
			fn(j)
			return broker.StatusSuccess, nil
		case typeError:
			c.pending = false
			return broker.StatusFailed, broker.ErrJobFailed.WithDetail("reason", fmt.Sprintf("%s: %s", p.arg(0), p.arg(1)))
		default:
			c.pending = false
			return broker.StatusFailed, broker.ErrProtocol.WithDetail("reason", fmt.Sprintf("unexpected packet type %d", p.typ))
		}
	}
}

// connect dials the servers without a connection and announces the
// registered functions on them.
func (w *worker) connect() error {
	functions := make([]string, 0, len(w.funcs))
	for f := range w.funcs {
		functions = append(functions, f)
	}
	sort.Strings(functions)

	var lastErr error
	for i, addr := range w.addrs {
		if w.conns[i] != nil {
			continue
		}
		c, err := dial(addr, w.opts.timeout)
		if err != nil {
			lastErr = err
			continue
		}
		for _, f := range functions {
			if err = c.send(typeCanDo, []byte(f)); err != nil {
				break
			}
		}
		if err != nil {
			_ = c.close()
			lastErr = err
			continue
		}
		w.conns[i] = c
	}
	return lastErr
}

func (w *worker) drop(i int) {
	if w.conns[i] != nil {
		_ = w.conns[i].close()
		w.conns[i] = nil
	}
}

func (w *worker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for i, c := range w.conns {
		if c != nil {
			errs = append(errs, c.close())
			w.conns[i] = nil
		}
	}
	return errors.Join(errs...)
}

// isConnError reports whether err leaves the connection unusable. An ERROR
// answer from the server and cancellation do not.
func isConnError(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, broker.ErrJobFailed)
}

type job struct {
	conn     *conn
	handle   string
	function string
	unique   string
	workload []byte
	done     atomic.Bool
}

var _ broker.Job = (*job)(nil)

func (j *job) Handle() string   { return j.handle }
func (j *job) Unique() string   { return j.unique }
func (j *job) Workload() []byte { return j.workload }

// Complete sends WORK_COMPLETE. A job completes once.
func (j *job) Complete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !j.done.CompareAndSwap(false, true) {
		return broker.ErrJobFailed.WithDetail("reason", "job "+j.handle+" is already complete")
	}
	if err := j.conn.send(typeWorkComplete, []byte(j.handle), []byte("1")); err != nil {
		j.done.Store(false)
		return err
	}
	return nil
}
