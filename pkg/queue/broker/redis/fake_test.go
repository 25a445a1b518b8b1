package redis

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type pendingEntry struct {
	consumer    string
	deliveredAt time.Time
}

type fakeStream struct {
	messages  []redis.XMessage
	groups    map[string]*fakeGroup
	lastEntry int
}

type fakeGroup struct {
	delivered int
	pending   map[string]*pendingEntry
}

// fakeRedis keeps streams and consumer groups in memory. Only the stream
// commands the job server uses are implemented.
type fakeRedis struct {
	redis.UniversalClient

	mu      sync.Mutex
	now     time.Time
	streams map[string]*fakeStream
	calls   []string
	readErr error
	closed  bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		now:     time.Unix(1_700_000_000, 0),
		streams: make(map[string]*fakeStream),
	}
}

func (f *fakeRedis) advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func (f *fakeRedis) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeRedis) called(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeRedis) length(stream string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.streams[stream]; ok {
		return len(s.messages)
	}
	return 0
}

func (f *fakeRedis) stream(name string) *fakeStream {
	s, ok := f.streams[name]
	if !ok {
		s = &fakeStream{groups: make(map[string]*fakeGroup)}
		f.streams[name] = s
	}
	return s
}

func (f *fakeRedis) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("XAdd")

	s := f.stream(a.Stream)
	s.lastEntry++
	id := strconv.Itoa(s.lastEntry) + "-0"
	values, _ := a.Values.(map[string]interface{})
	s.messages = append(s.messages, redis.XMessage{ID: id, Values: values})

	cmd := redis.NewStringCmd(ctx)
	cmd.SetVal(id)
	return cmd
}

func (f *fakeRedis) XInfoGroups(ctx context.Context, key string) *redis.XInfoGroupsCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("XInfoGroups")

	cmd := redis.NewXInfoGroupsCmd(ctx, key)
	s, ok := f.streams[key]
	if !ok {
		cmd.SetErr(errors.New("ERR no such key"))
		return cmd
	}
	var groups []redis.XInfoGroup
	for name := range s.groups {
		groups = append(groups, redis.XInfoGroup{Name: name})
	}
	cmd.SetVal(groups)
	return cmd
}

func (f *fakeRedis) XGroupCreateMkStream(ctx context.Context, stream, group, _ string) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("XGroupCreateMkStream")

	cmd := redis.NewStatusCmd(ctx)
	s := f.stream(stream)
	if _, ok := s.groups[group]; ok {
		cmd.SetErr(errors.New("BUSYGROUP Consumer Group name already exists"))
		return cmd
	}
	s.groups[group] = &fakeGroup{pending: make(map[string]*pendingEntry)}
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("XReadGroup")

	cmd := redis.NewXStreamSliceCmd(ctx)
	if f.readErr != nil {
		cmd.SetErr(f.readErr)
		return cmd
	}

	keys := a.Streams[:len(a.Streams)/2]
	for _, key := range keys {
		s, ok := f.streams[key]
		if !ok {
			continue
		}
		g, ok := s.groups[a.Group]
		if !ok {
			cmd.SetErr(errors.New("NOGROUP No such key or consumer group"))
			return cmd
		}
		for _, msg := range s.messages {
			n, _ := strconv.Atoi(msg.ID[:len(msg.ID)-2])
			if n <= g.delivered {
				continue
			}
			g.delivered = n
			g.pending[msg.ID] = &pendingEntry{consumer: a.Consumer, deliveredAt: f.now}
			cmd.SetVal([]redis.XStream{{Stream: key, Messages: []redis.XMessage{msg}}})
			return cmd
		}
	}
	cmd.SetErr(redis.Nil)
	return cmd
}

func (f *fakeRedis) XPendingExt(ctx context.Context, a *redis.XPendingExtArgs) *redis.XPendingExtCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("XPendingExt")

	cmd := redis.NewXPendingExtCmd(ctx)
	var out []redis.XPendingExt
	if s, ok := f.streams[a.Stream]; ok {
		if g, ok := s.groups[a.Group]; ok {
			for _, msg := range s.messages {
				p, ok := g.pending[msg.ID]
				if !ok {
					continue
				}
				idle := f.now.Sub(p.deliveredAt)
				if idle < a.Idle {
					continue
				}
				out = append(out, redis.XPendingExt{ID: msg.ID, Consumer: p.consumer, Idle: idle})
				if int64(len(out)) >= a.Count {
					break
				}
			}
		}
	}
	cmd.SetVal(out)
	return cmd
}

func (f *fakeRedis) XClaim(ctx context.Context, a *redis.XClaimArgs) *redis.XMessageSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("XClaim")

	cmd := redis.NewXMessageSliceCmd(ctx)
	var out []redis.XMessage
	s := f.streams[a.Stream]
	g := s.groups[a.Group]
	for _, id := range a.Messages {
		p, ok := g.pending[id]
		if !ok || f.now.Sub(p.deliveredAt) < a.MinIdle {
			continue
		}
		for _, msg := range s.messages {
			if msg.ID == id {
				p.consumer = a.Consumer
				p.deliveredAt = f.now
				out = append(out, msg)
			}
		}
	}
	cmd.SetVal(out)
	return cmd
}

func (f *fakeRedis) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("XAck")

	cmd := redis.NewIntCmd(ctx)
	var n int64
	if s, ok := f.streams[stream]; ok {
		if g, ok := s.groups[group]; ok {
			for _, id := range ids {
				if _, ok := g.pending[id]; ok {
					delete(g.pending, id)
					n++
				}
			}
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (f *fakeRedis) XDel(ctx context.Context, stream string, ids ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("XDel")

	cmd := redis.NewIntCmd(ctx)
	var n int64
	if s, ok := f.streams[stream]; ok {
		kept := s.messages[:0]
		for _, msg := range s.messages {
			drop := false
			for _, id := range ids {
				if msg.ID == id {
					drop = true
				}
			}
			if drop {
				n++
				continue
			}
			kept = append(kept, msg)
		}
		s.messages = kept
	}
	cmd.SetVal(n)
	return cmd
}

func (f *fakeRedis) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
