package broker

import (
	"context"
	"errors"
	"sync"

	"github.com/shuldan/queues/pkg/contracts"
)

type step struct {
	status Status
	err    error
	job    Job
}

type scriptedWorker struct {
	mu       sync.Mutex
	steps    []step
	function string
	fn       JobFunc
	waits    int
	closed   bool
}

func (w *scriptedWorker) AddFunction(function string, fn JobFunc) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.function, w.fn = function, fn
	return nil
}

func (w *scriptedWorker) Work(context.Context) (Status, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.steps) == 0 {
		return StatusNoJobs, nil
	}
	s := w.steps[0]
	w.steps = w.steps[1:]
	if s.status == StatusSuccess && s.job != nil {
		w.fn(s.job)
	}
	return s.status, s.err
}

func (w *scriptedWorker) Wait(context.Context) error {
	w.mu.Lock()
	w.waits++
	w.mu.Unlock()
	return nil
}

func (w *scriptedWorker) Close() error {
	w.closed = true
	return nil
}

type submission struct {
	function string
	unique   string
	workload []byte
}

type scriptedClient struct {
	submitted []submission
	err       error
	closed    bool
}

func (c *scriptedClient) SubmitBackground(_ context.Context, function, unique string, workload []byte) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	c.submitted = append(c.submitted, submission{function, unique, workload})
	return "H:scripted:1", nil
}

func (c *scriptedClient) Close() error {
	c.closed = true
	return nil
}

type scriptedServer struct {
	worker    *scriptedWorker
	client    *scriptedClient
	workerErr error
	workers   int
	clients   int
}

func (s *scriptedServer) DefaultPort() int { return 4730 }

func (s *scriptedServer) NewClient([]string, contracts.Config) (Client, error) {
	s.clients++
	return s.client, nil
}

func (s *scriptedServer) NewWorker([]string, contracts.Config) (Worker, error) {
	s.workers++
	if s.workerErr != nil {
		return nil, s.workerErr
	}
	return s.worker, nil
}

type stubJob struct {
	handle    string
	unique    string
	workload  []byte
	completed int
	err       error
}

func (j *stubJob) Handle() string   { return j.handle }
func (j *stubJob) Unique() string   { return j.unique }
func (j *stubJob) Workload() []byte { return j.workload }

func (j *stubJob) Complete(context.Context) error {
	if j.err != nil {
		return j.err
	}
	j.completed++
	return nil
}

var errScripted = errors.New("scripted failure")
