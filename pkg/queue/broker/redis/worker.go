package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shuldan/queues/pkg/queue/broker"
)

type worker struct {
	client   redis.UniversalClient
	config   *config
	consumer string

	mu        sync.Mutex
	funcs     map[string]broker.JobFunc
	groups    map[string]bool
	lastClaim time.Time
}

func (w *worker) AddFunction(function string, fn broker.JobFunc) error {
	if function == "" || fn == nil {
		return broker.ErrProtocol.WithDetail("reason", "function name and callback are required")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.funcs[function] = fn
	return nil
}

// Work first claims a stalled job, at most once per claim interval, then
// reads a new one, blocking up to the block timeout.
func (w *worker) Work(ctx context.Context) (broker.Status, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.funcs) == 0 {
		return broker.StatusFailed, broker.ErrProtocol.WithDetail("reason", "no functions registered")
	}
	functions := make([]string, 0, len(w.funcs))
	for f := range w.funcs {
		functions = append(functions, f)
	}
	sort.Strings(functions)

	for _, f := range functions {
		if err := w.ensureGroup(ctx, w.config.stream(f)); err != nil {
			return broker.StatusFailed, err
		}
	}

	if w.config.enableClaim && time.Since(w.lastClaim) >= w.config.claimInterval {
		w.lastClaim = time.Now()
		for _, f := range functions {
			j, err := w.claim(ctx, f)
			if err != nil {
				return broker.StatusFailed, err
			}
			if j != nil {
				w.funcs[f](j)
				return broker.StatusSuccess, nil
			}
		}
	}

	return w.read(ctx, functions)
}

func (w *worker) read(ctx context.Context, functions []string) (broker.Status, error) {
	streams := make([]string, 0, 2*len(functions))
	for _, f := range functions {
		streams = append(streams, w.config.stream(f))
	}
	for range functions {
		streams = append(streams, ">")
	}

	block := w.config.blockTimeout
	if block <= 0 {
		block = -1
	}
	result, err := w.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    w.config.consumerGroup,
		Consumer: w.consumer,
		Streams:  streams,
		Count:    1,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return broker.StatusNoJobs, nil
		}
		if ctx.Err() != nil {
			return broker.StatusFailed, ctx.Err()
		}
		return broker.StatusFailed, broker.ErrUnavailable.WithDetail("servers", strings.Join(streams[:len(functions)], ",")).WithCause(err)
	}

	for _, s := range result {
		if len(s.Messages) == 0 {
			continue
		}
		f := functionOf(functions, w.config, s.Stream)
		j, err := w.job(ctx, s.Stream, s.Messages[0])
		if err != nil {
			return broker.StatusFailed, err
		}
		w.funcs[f](j)
		return broker.StatusSuccess, nil
	}
	return broker.StatusNoJobs, nil
}

// claim takes over the first job another consumer left pending for longer
// than the processing timeout.
func (w *worker) claim(ctx context.Context, function string) (*job, error) {
	stream := w.config.stream(function)
	pending, err := w.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: stream,
		Group:  w.config.consumerGroup,
		Start:  "-",
		End:    "+",
		Count:  int64(w.config.maxClaimBatch),
		Idle:   w.config.processingTimeout,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, broker.ErrUnavailable.WithDetail("servers", stream).WithCause(err)
	}

	for _, p := range pending {
		msgs, err := w.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   stream,
			Group:    w.config.consumerGroup,
			Consumer: w.consumer,
			MinIdle:  w.config.processingTimeout,
			Messages: []string{p.ID},
		}).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, broker.ErrUnavailable.WithDetail("servers", stream).WithCause(err)
		}
		if len(msgs) == 0 {
			continue
		}
		return w.job(ctx, stream, msgs[0])
	}
	return nil, nil
}

// job decodes a stream entry. An entry that cannot be decoded is
// acknowledged and deleted so it is not delivered again.
func (w *worker) job(ctx context.Context, stream string, msg redis.XMessage) (*job, error) {
	body, err := decodeMessage(msg.Values)
	if err != nil {
		_ = w.client.XAck(ctx, stream, w.config.consumerGroup, msg.ID).Err()
		_ = w.client.XDel(ctx, stream, msg.ID).Err()
		return nil, err
	}
	return &job{
		client:   w.client,
		stream:   stream,
		group:    w.config.consumerGroup,
		id:       msg.ID,
		unique:   body.Unique,
		workload: body.Data,
	}, nil
}

func (w *worker) ensureGroup(ctx context.Context, stream string) error {
	if w.groups[stream] {
		return nil
	}
	exists, err := w.groupExists(ctx, stream, w.config.consumerGroup)
	if err != nil {
		return broker.ErrUnavailable.WithDetail("servers", stream).WithCause(err)
	}
	if !exists {
		if err := w.client.XGroupCreateMkStream(ctx, stream, w.config.consumerGroup, "0").Err(); err != nil && !isGroupExists(err) {
			return broker.ErrUnavailable.WithDetail("servers", stream).WithCause(err)
		}
	}
	w.groups[stream] = true
	return nil
}

func (w *worker) groupExists(ctx context.Context, stream, group string) (bool, error) {
	groups, err := w.client.XInfoGroups(ctx, stream).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || strings.Contains(err.Error(), "no such key") {
			return false, nil
		}
		return false, err
	}
	for _, g := range groups {
		if g.Name == group {
			return true, nil
		}
	}
	return false, nil
}

// Wait returns at once: Work already blocks on the server.
func (w *worker) Wait(ctx context.Context) error {
	return ctx.Err()
}

func (w *worker) Close() error {
	return w.client.Close()
}

func functionOf(functions []string, c *config, stream string) string {
	for _, f := range functions {
		if c.stream(f) == stream {
			return f
		}
	}
	return functions[0]
}

func newConsumerID(prefix string) string {
	if prefix != "" {
		prefix = prefix + "-"
	}
	return fmt.Sprintf("worker-%s%s", prefix, uuid.New().String())
}

func isGroupExists(err error) bool {
	return err != nil && (strings.HasPrefix(err.Error(), "BUSYGROUP") ||
		strings.Contains(err.Error(), "already exists"))
}

type job struct {
	client   redis.UniversalClient
	stream   string
	group    string
	id       string
	unique   string
	workload []byte
	done     atomic.Bool
}

var _ broker.Job = (*job)(nil)

func (j *job) Handle() string   { return j.id }
func (j *job) Unique() string   { return j.unique }
func (j *job) Workload() []byte { return j.workload }

// Complete acknowledges the entry and deletes it from the stream.
func (j *job) Complete(ctx context.Context) error {
	if j.done.Load() {
		return broker.ErrJobFailed.WithDetail("reason", "job "+j.id+" is already complete")
	}
	acked, err := j.client.XAck(ctx, j.stream, j.group, j.id).Result()
	if err != nil {
		return broker.ErrUnavailable.WithDetail("servers", j.stream).WithCause(err)
	}
	if acked == 0 {
		return broker.ErrJobFailed.WithDetail("reason", "job "+j.id+" is not pending")
	}
	if err := j.client.XDel(ctx, j.stream, j.id).Err(); err != nil {
		return broker.ErrUnavailable.WithDetail("servers", j.stream).WithCause(err)
	}
	j.done.Store(true)
	return nil
}
