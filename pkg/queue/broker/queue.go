package broker

import (
	"context"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/shuldan/queues/pkg/contracts"
	"github.com/shuldan/queues/pkg/errors"
	"github.com/shuldan/queues/pkg/queue"
)

// Queue submits items as background jobs for the function
// "handle"+Name and pulls them back through a worker registered for
// that function. Client and worker are created on first use.
type Queue struct {
	queue.Base
	server  JobServer
	addrs   []string
	cfg     contracts.Config
	maxWait int

	mu      sync.Mutex
	client  Client
	worker  Worker
	grabbed Job
}

var _ contracts.Queue = (*Queue)(nil)

// FunctionName is the job server function the queue submits to.
func (q *Queue) FunctionName() string {
	return FunctionName(q.Name())
}

// FunctionName capitalizes the first letter of name and prefixes it with
// "handle".
func FunctionName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return "handle" + name
	}
	return "handle" + string(unicode.ToUpper(r)) + name[size:]
}

func (q *Queue) SetName(name string) {
	q.Base.SetName(name)
	q.reset()
}

func (q *Queue) Create(context.Context) error {
	return nil
}

func (q *Queue) Exists(context.Context) (bool, error) {
	return true, nil
}

// Destroy drops the client and the worker; both are rebuilt on next use.
func (q *Queue) Destroy(context.Context) error {
	return q.reset()
}

// Close releases the server connections.
func (q *Queue) Close() error {
	return q.reset()
}

func (q *Queue) reset() error {
	q.mu.Lock()
	client, worker := q.client, q.worker
	q.client, q.worker, q.grabbed = nil, nil, nil
	q.mu.Unlock()

	var errs []error
	if client != nil {
		errs = append(errs, client.Close())
	}
	if worker != nil {
		errs = append(errs, worker.Close())
	}
	return errors.Join(errs...)
}

func (q *Queue) getClient() (Client, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.client != nil {
		return q.client, nil
	}
	c, err := q.server.NewClient(q.addrs, q.cfg)
	if err != nil {
		return nil, err
	}
	q.client = c
	return c, nil
}

func (q *Queue) getWorker() (Worker, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.worker != nil {
		return q.worker, nil
	}
	w, err := q.server.NewWorker(q.addrs, q.cfg)
	if err != nil {
		return nil, err
	}
	if err := w.AddFunction(q.FunctionName(), q.capture); err != nil {
		_ = w.Close()
		return nil, err
	}
	q.worker = w
	return w, nil
}

func (q *Queue) capture(job Job) {
	q.mu.Lock()
	q.grabbed = job
	q.mu.Unlock()
}

func (q *Queue) take() Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	job := q.grabbed
	q.grabbed = nil
	return job
}

func (q *Queue) Add(ctx context.Context, item *queue.Item) (bool, error) {
	if item == nil {
		return false, queue.ErrInvalidItem.WithDetail("reason", "nil item")
	}
	payload, err := queue.EncodeData(item.Data)
	if err != nil {
		return false, err
	}

	client, err := q.getClient()
	if err != nil {
		q.Log().Error("unable to add new item", "error", err)
		return false, nil
	}

	unique := uuid.NewString()
	handle, err := client.SubmitBackground(ctx, q.FunctionName(), unique, payload)
	if err != nil {
		q.Log().Error("unable to add new item", "function", q.FunctionName(), "error", err)
		return false, nil
	}

	item.ID = unique
	item.Handler = handle
	q.Log().Info("new item added", "id", unique, "handle", handle)
	return true, nil
}

// Get works the worker until it delivers a job, reports that nothing is
// queued, or has waited on the server more than maxWait times.
func (q *Queue) Get(ctx context.Context) (*queue.Item, error) {
	worker, err := q.getWorker()
	if err != nil {
		q.Log().Error("unable to get item", "error", err)
		return nil, nil
	}
	q.take()

	waits := 0
	for {
		status, err := worker.Work(ctx)
		switch status {
		case StatusSuccess:
			job := q.take()
			if job == nil {
				q.Log().Error("unable to get item: no job was delivered")
				return nil, nil
			}
			item := q.toItem(job)
			q.Log().Info("get item", "id", item.ID)
			return item, nil
		case StatusIOWait:
			if waits >= q.maxWait {
				return nil, ErrWaitTimeout.WithDetail("queue", q.Name()).WithDetail("waits", waits)
			}
			if err := worker.Wait(ctx); err != nil && ctx.Err() != nil {
				q.Log().Debug("unable to get item: interrupted", "error", ctx.Err())
				return nil, nil
			}
			waits++
		case StatusNoJobs:
			q.Log().Info("unable to get item: queue is empty")
			return nil, nil
		default:
			q.Log().Error("unable to get item", "status", status.String(), "error", err)
			return nil, nil
		}
	}
}

// toItem keeps the job as the handler. A workload that is not a JSON
// object leaves the item data empty so the job can still be removed.
func (q *Queue) toItem(job Job) *queue.Item {
	data, err := queue.DecodeData(job.Workload())
	if err != nil {
		q.Log().Warn("job workload is not an object", "id", job.Unique(), "error", err)
		data = map[string]any{}
	}
	return &queue.Item{ID: job.Unique(), Handler: job, Data: data}
}

func (q *Queue) Remove(ctx context.Context, handler any) (bool, error) {
	job, ok := handler.(Job)
	if !ok || job == nil {
		return false, q.InvalidHandler(handler)
	}
	if err := job.Complete(ctx); err != nil {
		q.Log().Error("unable to remove item", "id", job.Unique(), "error", err)
		return false, nil
	}
	q.Log().Info("item has been removed", "id", job.Unique())
	return true, nil
}
