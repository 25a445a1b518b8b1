package gearman

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shuldan/queues/pkg/config"
	"github.com/shuldan/queues/pkg/contracts"
	qerrors "github.com/shuldan/queues/pkg/errors"
	"github.com/shuldan/queues/pkg/queue"
	"github.com/shuldan/queues/pkg/queue/broker"
)

func fastConfig() contracts.Config {
	return config.NewMapConfig(map[string]any{
		"timeout":       "1s",
		"poll_interval": "20ms",
	})
}

func TestReadPacket_LastArgumentKeepsNUL(t *testing.T) {
	workload := []byte("a\x00b")
	raw := encodePacket(resMagic, typeJobAssignUniq, []byte("H:1"), []byte("handleMails"), []byte("u-1"), workload)

	p, err := readPacket(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	if p.magic != resMagic || p.typ != typeJobAssignUniq {
		t.Fatalf("unexpected header %q %d", p.magic, p.typ)
	}
	if len(p.args) != 4 || string(p.arg(1)) != "handleMails" || !bytes.Equal(p.arg(3), workload) {
		t.Errorf("unexpected args %q", p.args)
	}
}

func TestReadPacket_Errors(t *testing.T) {
	bad := encodePacket("\x00BAD", typeNoJob)
	if _, err := readPacket(bytes.NewReader(bad)); !errors.Is(err, broker.ErrProtocol) {
		t.Errorf("expected ErrProtocol for bad magic, got %v", err)
	}

	short := encodePacket(resMagic, typeJobAssignUniq, []byte("H:1"))
	if _, err := readPacket(bytes.NewReader(short)); !errors.Is(err, broker.ErrProtocol) {
		t.Errorf("expected ErrProtocol for missing arguments, got %v", err)
	}

	empty := encodePacket(resMagic, typeNoJob)
	if p, err := readPacket(bytes.NewReader(empty)); err != nil || p.args != nil {
		t.Errorf("expected empty NO_JOB, got %v %v", p.args, err)
	}
}

func TestClient_SubmitBackground(t *testing.T) {
	srv := newFakeServer(t)
	c, _ := Server{}.NewClient([]string{srv.addr()}, fastConfig())
	defer func() { _ = c.Close() }()

	handle, err := c.SubmitBackground(context.Background(), "handleMails", "u-1", []byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if handle != "H:fake:1" {
		t.Errorf("unexpected handle %q", handle)
	}
	if srv.queuedCount("handleMails") != 1 {
		t.Error("expected the job to be queued")
	}
}

func TestClient_Rejected(t *testing.T) {
	srv := newFakeServer(t)
	srv.set(func(s *fakeServer) { s.rejectSubmit = true })
	c, _ := Server{}.NewClient([]string{srv.addr()}, fastConfig())
	defer func() { _ = c.Close() }()

	_, err := c.SubmitBackground(context.Background(), "handleMails", "u-1", nil)
	if !errors.Is(err, broker.ErrJobFailed) {
		t.Errorf("expected ErrJobFailed, got %v", err)
	}
}

func TestClient_Failover(t *testing.T) {
	srv := newFakeServer(t)
	c, _ := Server{}.NewClient([]string{deadAddr(t), srv.addr()}, fastConfig())
	defer func() { _ = c.Close() }()

	if _, err := c.SubmitBackground(context.Background(), "handleMails", "u-1", nil); err != nil {
		t.Fatalf("expected the second server to be used, got %v", err)
	}
}

func TestClient_Unavailable(t *testing.T) {
	c, _ := Server{}.NewClient([]string{deadAddr(t)}, fastConfig())
	_, err := c.SubmitBackground(context.Background(), "handleMails", "u-1", nil)
	if !errors.Is(err, broker.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestWorker_GrabAndComplete(t *testing.T) {
	ctx := context.Background()
	srv := newFakeServer(t)
	c, _ := Server{}.NewClient([]string{srv.addr()}, fastConfig())
	defer func() { _ = c.Close() }()
	if _, err := c.SubmitBackground(ctx, "handleMails", "u-1", []byte("payload")); err != nil {
		t.Fatal(err)
	}

	w, _ := Server{}.NewWorker([]string{srv.addr()}, fastConfig())
	defer func() { _ = w.Close() }()

	var got broker.Job
	if err := w.AddFunction("handleMails", func(j broker.Job) { got = j }); err != nil {
		t.Fatal(err)
	}

	status, err := w.Work(ctx)
	if status != broker.StatusSuccess || err != nil {
		t.Fatalf("expected success, got %v %v", status, err)
	}
	if got == nil || got.Unique() != "u-1" || string(got.Workload()) != "payload" || got.Handle() != "H:fake:1" {
		t.Fatalf("unexpected job %+v", got)
	}

	if err := got.Complete(ctx); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	waitFor(t, func() bool { return len(srv.completedHandles()) == 1 })
	if err := got.Complete(ctx); !errors.Is(err, broker.ErrJobFailed) {
		t.Errorf("expected second completion to fail, got %v", err)
	}

	if status, err := w.Work(ctx); status != broker.StatusNoJobs || err != nil {
		t.Errorf("expected no jobs, got %v %v", status, err)
	}
}

func TestWorker_StalledServer(t *testing.T) {
	srv := newFakeServer(t)
	srv.set(func(s *fakeServer) { s.stallGrab = true })

	w, _ := Server{}.NewWorker([]string{srv.addr()}, fastConfig())
	defer func() { _ = w.Close() }()
	_ = w.AddFunction("handleMails", func(broker.Job) {})

	status, err := w.Work(context.Background())
	if status != broker.StatusIOWait || err != nil {
		t.Fatalf("expected io wait, got %v %v", status, err)
	}

	start := time.Now()
	if err := w.Wait(context.Background()); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("expected Wait to block for the poll interval")
	}
}

func TestWorker_Unavailable(t *testing.T) {
	w, _ := Server{}.NewWorker([]string{deadAddr(t)}, fastConfig())
	_ = w.AddFunction("handleMails", func(broker.Job) {})

	status, err := w.Work(context.Background())
	if status != broker.StatusFailed || !errors.Is(err, broker.ErrUnavailable) {
		t.Errorf("expected unavailable failure, got %v %v", status, err)
	}
}

func TestWorker_NoFunctions(t *testing.T) {
	srv := newFakeServer(t)
	w, _ := Server{}.NewWorker([]string{srv.addr()}, fastConfig())
	if status, _ := w.Work(context.Background()); status != broker.StatusFailed {
		t.Errorf("expected failure without functions, got %v", status)
	}
}

func openBrokerQueue(t *testing.T, srv *fakeServer, name string, maxWait int) contracts.Queue {
	t.Helper()
	d := broker.NewDriver(Server{}, srv.addr(), broker.WithServerConfig(fastConfig()), broker.WithMaxWait(maxWait))
	q, err := d.Open(name, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = q.Destroy(context.Background()) })
	return q
}

func TestQueue_OverGearman(t *testing.T) {
	ctx := context.Background()
	srv := newFakeServer(t)
	q := openBrokerQueue(t, srv, "mails", broker.DefaultMaxWait)

	item := queue.NewItem(map[string]any{"to": "a@b.c"})
	if ok, err := q.Add(ctx, item); !ok || err != nil {
		t.Fatalf("Add failed: %v %v", ok, err)
	}
	if item.Handler != "H:fake:1" {
		t.Errorf("expected job handle as handler, got %v", item.Handler)
	}
	if srv.queuedCount("handleMails") != 1 {
		t.Fatal("expected a job for handleMails")
	}

	got, err := q.Get(ctx)
	if err != nil || got == nil {
		t.Fatalf("Get failed: %v %v", got, err)
	}
	if got.ID != item.ID || got.Data["to"] != "a@b.c" {
		t.Errorf("unexpected item %+v", got)
	}

	if ok, err := q.Remove(ctx, got.Handler); !ok || err != nil {
		t.Fatalf("Remove failed: %v %v", ok, err)
	}
	waitFor(t, func() bool { return len(srv.completedHandles()) == 1 })

	if empty, err := q.Get(ctx); empty != nil || err != nil {
		t.Errorf("expected empty queue, got %v %v", empty, err)
	}
}

func TestQueue_SlowServerWithinBudget(t *testing.T) {
	srv := newFakeServer(t)
	srv.set(func(s *fakeServer) { s.grabDelay = 50 * time.Millisecond })
	q := openBrokerQueue(t, srv, "mails", 20)

	if ok, _ := q.Add(context.Background(), queue.NewItem(map[string]any{"n": 1})); !ok {
		t.Fatal("Add failed")
	}
	got, err := q.Get(context.Background())
	if err != nil || got == nil {
		t.Fatalf("expected the job after a few waits, got %v %v", got, err)
	}
}

func TestQueue_WaitTimeout(t *testing.T) {
	srv := newFakeServer(t)
	srv.set(func(s *fakeServer) { s.stallGrab = true })
	q := openBrokerQueue(t, srv, "mails", 2)

	got, err := q.Get(context.Background())
	if got != nil || !errors.Is(err, broker.ErrWaitTimeout) {
		t.Fatalf("expected ErrWaitTimeout, got %v %v", got, err)
	}
	if !errors.Is(err, queue.ErrTimeout) || !qerrors.IsFatal(err) {
		t.Error("expected a fatal timeout")
	}
}

func TestQueue_ServerDown(t *testing.T) {
	d := broker.NewDriver(Server{}, deadAddr(t), broker.WithServerConfig(fastConfig()))
	q, _ := d.Open("mails", nil)

	if ok, err := q.Add(context.Background(), queue.NewItem(nil)); ok || err != nil {
		t.Errorf("expected soft Add failure, got %v %v", ok, err)
	}
	if item, err := q.Get(context.Background()); item != nil || err != nil {
		t.Errorf("expected soft Get failure, got %v %v", item, err)
	}
}
