package gearman

import (
	"bufio"
	"net"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"
)

type fakeJob struct {
	handle   string
	function string
	unique   string
	workload []byte
}

// fakeServer is a minimal in-process gearman job server.
type fakeServer struct {
	ln net.Listener

	mu           sync.Mutex
	seq          int
	queued       map[string][]*fakeJob
	assigned     map[string]*fakeJob
	completed    []string
	conns        []net.Conn
	stallGrab    bool
	grabDelay    time.Duration
	rejectSubmit bool
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &fakeServer{
		ln:       ln,
		queued:   make(map[string][]*fakeJob),
		assigned: make(map[string]*fakeJob),
	}
	go s.accept()
	t.Cleanup(s.close)
	return s
}

func (s *fakeServer) addr() string {
	return s.ln.Addr().String()
}

func (s *fakeServer) set(fn func(s *fakeServer)) {
	s.mu.Lock()
	fn(s)
	s.mu.Unlock()
}

func (s *fakeServer) queuedCount(function string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queued[function])
}

func (s *fakeServer) completedHandles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.completed...)
}

func (s *fakeServer) close() {
	_ = s.ln.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		_ = c.Close()
	}
}

func (s *fakeServer) accept() {
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, nc)
		s.mu.Unlock()
		go s.serve(nc)
	}
}

func (s *fakeServer) serve(nc net.Conn) {
	r := bufio.NewReader(nc)
	can := make(map[string]bool)
	write := func(typ packetType, args ...[]byte) {
		_, _ = nc.Write(encodePacket(resMagic, typ, args...))
	}

	for {
		p, err := readPacket(r)
		if err != nil {
			return
		}

		switch p.typ {
		case typeCanDo:
			can[string(p.arg(0))] = true

		case typeSubmitJobBg:
			s.mu.Lock()
			if s.rejectSubmit {
				s.mu.Unlock()
				write(typeError, []byte("ERR_QUEUE_FULL"), []byte("queue is full"))
				continue
			}
			s.seq++
			j := &fakeJob{
				handle:   "H:fake:" + strconv.Itoa(s.seq),
				function: string(p.arg(0)),
				unique:   string(p.arg(1)),
				workload: append([]byte(nil), p.arg(2)...),
			}
			s.queued[j.function] = append(s.queued[j.function], j)
			s.mu.Unlock()
			write(typeJobCreated, []byte(j.handle))

		case typeGrabJobUniq:
			s.mu.Lock()
			stall, delay := s.stallGrab, s.grabDelay
			s.mu.Unlock()
			if stall {
				continue
			}
			if delay > 0 {
				time.Sleep(delay)
			}
			if j := s.grab(can); j != nil {
				write(typeJobAssignUniq, []byte(j.handle), []byte(j.function), []byte(j.unique), j.workload)
			} else {
				write(typeNoJob)
			}

		case typeWorkComplete:
			s.mu.Lock()
			handle := string(p.arg(0))
			delete(s.assigned, handle)
			s.completed = append(s.completed, handle)
			s.mu.Unlock()
		}
	}
}

func (s *fakeServer) grab(can map[string]bool) *fakeJob {
	functions := make([]string, 0, len(can))
	for f := range can {
		functions = append(functions, f)
	}
	sort.Strings(functions)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range functions {
		if jobs := s.queued[f]; len(jobs) > 0 {
			s.queued[f] = jobs[1:]
			s.assigned[jobs[0].handle] = jobs[0]
			return jobs[0]
		}
	}
	return nil
}

// deadAddr returns an address nothing listens on.
func deadAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
