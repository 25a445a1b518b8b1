package redis

import (
	"time"

	"github.com/shuldan/queues/pkg/contracts"
)

type Option func(*config)

type config struct {
	streamKeyFormat   string
	consumerGroup     string
	processingTimeout time.Duration
	claimInterval     time.Duration
	maxClaimBatch     int
	blockTimeout      time.Duration
	maxStreamLength   int64
	approximateTrim   bool
	enableClaim       bool
	consumerPrefix    string
}

func defaultConfig() *config {
	return &config{
		streamKeyFormat:   "queue:%s",
		consumerGroup:     "workers",
		processingTimeout: 30 * time.Second,
		claimInterval:     time.Second,
		maxClaimBatch:     10,
		blockTimeout:      500 * time.Millisecond,
		approximateTrim:   true,
		enableClaim:       true,
	}
}

func WithStreamKeyFormat(format string) Option {
	return func(c *config) {
		c.streamKeyFormat = format
	}
}

func WithConsumerGroup(group string) Option {
	return func(c *config) {
		c.consumerGroup = group
	}
}

// WithProcessingTimeout is the lease: a job left unacknowledged for longer
// is claimed by the next worker that looks.
func WithProcessingTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.processingTimeout = timeout
	}
}

func WithClaimInterval(interval time.Duration) Option {
	return func(c *config) {
		c.claimInterval = interval
	}
}

func WithMaxClaimBatch(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxClaimBatch = n
		}
	}
}

// WithBlockTimeout bounds how long one Work waits for a new job. Zero or
// less means no blocking.
func WithBlockTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.blockTimeout = timeout
	}
}

func WithMaxStreamLength(maxLen int64) Option {
	return func(c *config) {
		c.maxStreamLength = maxLen
	}
}

func WithApproximateTrimming(enabled bool) Option {
	return func(c *config) {
		c.approximateTrim = enabled
	}
}

func WithClaim(enabled bool) Option {
	return func(c *config) {
		c.enableClaim = enabled
	}
}

func WithConsumerPrefix(prefix string) Option {
	return func(c *config) {
		c.consumerPrefix = prefix
	}
}

// optionsFromConfig reads the job server settings of the broker driver
// section.
func optionsFromConfig(cfg contracts.Config) []Option {
	var opts []Option
	if cfg == nil {
		return opts
	}

	if prefix := cfg.GetString("prefix", ""); prefix != "" {
		opts = append(opts, WithStreamKeyFormat(prefix+":%s"))
	}
	if group := cfg.GetString("consumer_group", ""); group != "" {
		opts = append(opts, WithConsumerGroup(group))
	}
	if timeout := cfg.GetDuration("processing_timeout", 0); timeout > 0 {
		opts = append(opts, WithProcessingTimeout(timeout))
	}
	if interval := cfg.GetDuration("claim_interval", 0); interval > 0 {
		opts = append(opts, WithClaimInterval(interval))
	}
	if batch := cfg.GetInt("max_claim_batch", 0); batch > 0 {
		opts = append(opts, WithMaxClaimBatch(batch))
	}
	if cfg.Has("block_timeout") {
		opts = append(opts, WithBlockTimeout(cfg.GetDuration("block_timeout")))
	}
	if maxLen := cfg.GetInt64("max_stream_length", 0); maxLen > 0 {
		opts = append(opts, WithMaxStreamLength(maxLen))
	}
	if trim := cfg.GetBool("approximate_trimming", true); !trim {
		opts = append(opts, WithApproximateTrimming(trim))
	}
	if claim := cfg.GetBool("enable_claim", true); !claim {
		opts = append(opts, WithClaim(claim))
	}
	if prefix := cfg.GetString("consumer_prefix", ""); prefix != "" {
		opts = append(opts, WithConsumerPrefix(prefix))
	}
	return opts
}
