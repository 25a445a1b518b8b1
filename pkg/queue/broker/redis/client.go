package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/shuldan/queues/pkg/queue/broker"
)

type client struct {
	client redis.UniversalClient
	config *config
}

// SubmitBackground appends the job to the function stream; the entry id
// is the job handle.
func (c *client) SubmitBackground(ctx context.Context, function, unique string, workload []byte) (string, error) {
	values, err := encodeMessage(unique, workload)
	if err != nil {
		return "", broker.ErrProtocol.WithDetail("reason", err.Error()).WithCause(err)
	}

	args := &redis.XAddArgs{
		Stream: c.config.stream(function),
		Values: values,
	}
	if c.config.maxStreamLength > 0 {
		args.MaxLen = c.config.maxStreamLength
		args.Approx = c.config.approximateTrim
	}

	id, err := c.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", broker.ErrUnavailable.WithDetail("servers", args.Stream).WithCause(err)
	}
	return id, nil
}

func (c *client) Close() error {
	return c.client.Close()
}
