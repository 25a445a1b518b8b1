// Package memory is an in-process job server for the broker adapter.
// Grabbed jobs are leased: a job not completed before its lease runs out
// is handed to the next worker that asks.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shuldan/queues/pkg/contracts"
	"github.com/shuldan/queues/pkg/queue"
	"github.com/shuldan/queues/pkg/queue/broker"
)

const (
	Name         = "memory"
	DefaultLease = 30 * time.Second
)

// Default backs the "memory" job server of the broker driver.
var Default = New()

func init() {
	broker.RegisterServer(Name, Default)
	queue.Register(Name, factory)
}

// factory gives every manager its own server, so queues of two managers
// never share jobs.
func factory(cfg contracts.Config, log contracts.Logger) (queue.Driver, error) {
	s := New(WithLease(cfg.GetDuration("lease", DefaultLease)))
	return broker.NewDriver(s, "", broker.WithLogger(log), broker.WithServerConfig(cfg)), nil
}

type entry struct {
	seq      int
	handle   string
	function string
	unique   string
	workload []byte
	token    int
	deadline time.Time
}

type Server struct {
	mu     sync.Mutex
	lease  time.Duration
	now    func() time.Time
	seq    int
	queued map[string][]*entry
	leased map[string]*entry
	closed bool
}

type Option func(*Server)

func WithLease(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.lease = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

func New(opts ...Option) *Server {
	s := &Server{
		lease:  DefaultLease,
		now:    time.Now,
		queued: make(map[string][]*entry),
		leased: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ broker.JobServer = (*Server)(nil)

func (s *Server) DefaultPort() int {
	return 0
}

func (s *Server) NewClient([]string, contracts.Config) (broker.Client, error) {
	return &client{server: s}, nil
}

func (s *Server) NewWorker([]string, contracts.Config) (broker.Worker, error) {
	return &worker{server: s, funcs: make(map[string]broker.JobFunc)}, nil
}

// Len counts the jobs of function that are not complete yet.
func (s *Server) Len(function string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.queued[function])
	for _, e := range s.leased {
		if e.function == function {
			n++
		}
	}
	return n
}

// Close drops every job; later submissions fail with ErrClosed.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.queued = make(map[string][]*entry)
	s.leased = make(map[string]*entry)
	return nil
}

func (s *Server) submit(function, unique string, workload []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", broker.ErrClosed
	}
	s.seq++
	e := &entry{
		seq:      s.seq,
		handle:   "H:memory:" + strconv.Itoa(s.seq),
		function: function,
		unique:   unique,
		workload: append([]byte(nil), workload...),
	}
	s.queued[function] = append(s.queued[function], e)
	return e.handle, nil
}

func (s *Server) grab(functions []string) *job {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	now := s.now()
	s.expire(now)
	for _, f := range functions {
		jobs := s.queued[f]
		if len(jobs) == 0 {
			continue
		}
		e := jobs[0]
		s.queued[f] = jobs[1:]
		e.token++
		e.deadline = now.Add(s.lease)
		s.leased[e.handle] = e
		return &job{server: s, handle: e.handle, function: e.function, unique: e.unique, workload: e.workload, token: e.token}
	}
	return nil
}

// expire puts jobs whose lease ran out back at the head of their queue,
// oldest first.
func (s *Server) expire(now time.Time) {
	var expired []*entry
	for handle, e := range s.leased {
		if !now.Before(e.deadline) {
			expired = append(expired, e)
			delete(s.leased, handle)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].seq > expired[j].seq
	})
	for _, e := range expired {
		s.queued[e.function] = append([]*entry{e}, s.queued[e.function]...)
	}
}

func (s *Server) complete(handle string, token int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.leased[handle]
	if !ok || e.token != token {
		return broker.ErrJobFailed.WithDetail("reason", "job "+handle+" is not leased to this worker")
	}
	delete(s.leased, handle)
	return nil
}

type client struct {
	server *Server
}

func (c *client) SubmitBackground(ctx context.Context, function, unique string, workload []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return c.server.submit(function, unique, workload)
}

func (c *client) Close() error {
	return nil
}

type worker struct {
	server *Server
	mu     sync.Mutex
	funcs  map[string]broker.JobFunc
}

func (w *worker) AddFunction(function string, fn broker.JobFunc) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.funcs[function] = fn
	return nil
}

func (w *worker) Work(ctx context.Context) (broker.Status, error) {
	if err := ctx.Err(); err != nil {
		return broker.StatusFailed, err
	}

	w.mu.Lock()
	functions := make([]string, 0, len(w.funcs))
	for f := range w.funcs {
		functions = append(functions, f)
	}
	w.mu.Unlock()
	if len(functions) == 0 {
		return broker.StatusFailed, broker.ErrProtocol.WithDetail("reason", "no functions registered")
	}
	sort.Strings(functions)

	j := w.server.grab(functions)
	if j == nil {
		return broker.StatusNoJobs, nil
	}

	w.mu.Lock()
	fn := w.funcs[j.function]
	w.mu.Unlock()
	fn(j)
	return broker.StatusSuccess, nil
}

// Wait has nothing to wait for: the server answers every Work at once.
func (w *worker) Wait(ctx context.Context) error {
	return ctx.Err()
}

func (w *worker) Close() error {
	return nil
}

type job struct {
	server   *Server
	handle   string
	function string
	unique   string
	workload []byte
	token    int
}

func (j *job) Handle() string   { return j.handle }
func (j *job) Unique() string   { return j.unique }
func (j *job) Workload() []byte { return j.workload }

func (j *job) Complete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return j.server.complete(j.handle, j.token)
}
