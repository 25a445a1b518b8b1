package broker

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shuldan/queues/pkg/contracts"
)

// Status is the outcome of one Worker.Work call.
type Status int

const (
	// StatusSuccess means a job was grabbed and passed to its function.
	StatusSuccess Status = iota
	// StatusIOWait means a server has not answered yet; call Wait and retry.
	StatusIOWait
	// StatusNoJobs means every server answered that nothing is queued.
	StatusNoJobs
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusIOWait:
		return "io_wait"
	case StatusNoJobs:
		return "no_jobs"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Job is a job handed to a worker. It is also the handler Remove expects:
// completing it tells the server the job is done.
type Job interface {
	Handle() string
	Unique() string
	Workload() []byte
	Complete(ctx context.Context) error
}

type JobFunc func(job Job)

// Client submits background jobs.
type Client interface {
	// SubmitBackground returns once the server has accepted the job, with
	// the handle it assigned.
	SubmitBackground(ctx context.Context, function, unique string, workload []byte) (string, error)
	Close() error
}

// Worker pulls jobs for the functions registered on it.
type Worker interface {
	AddFunction(function string, fn JobFunc) error
	Work(ctx context.Context) (Status, error)
	// Wait blocks until a server may have something to say or a short
	// poll interval passes.
	Wait(ctx context.Context) error
	Close() error
}

// JobServer connects clients and workers to one kind of job server.
type JobServer interface {
	// DefaultPort is appended to server addresses given without one.
	// Zero means the server takes no addresses.
	DefaultPort() int
	NewClient(addrs []string, cfg contracts.Config) (Client, error)
	NewWorker(addrs []string, cfg contracts.Config) (Worker, error)
}

var (
	serversMu sync.RWMutex
	servers   = make(map[string]JobServer)
)

// RegisterServer makes a job server available under name to the broker
// driver's "server" setting. It panics on nil or duplicate registration.
func RegisterServer(name string, s JobServer) {
	serversMu.Lock()
	defer serversMu.Unlock()
	if s == nil {
		panic("broker: RegisterServer server is nil")
	}
	if _, dup := servers[name]; dup {
		panic("broker: RegisterServer called twice for server " + name)
	}
	servers[name] = s
}

// Servers lists the registered job server names.
func Servers() []string {
	serversMu.RLock()
	defer serversMu.RUnlock()
	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupServer(name string) (JobServer, bool) {
	serversMu.RLock()
	defer serversMu.RUnlock()
	s, ok := servers[name]
	return s, ok
}
