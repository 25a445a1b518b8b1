package commands

import (
	"context"
	"flag"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shuldan/queues/pkg/contracts"
	"github.com/shuldan/queues/pkg/queue"
	"github.com/shuldan/queues/pkg/queue/metrics"
)

// Consume prints every item it receives as a JSON line and removes it.
// It runs until the context is canceled or, with -limit, until that many
// items were handled.
type Consume struct {
	base
	limit       int
	interval    time.Duration
	maxRetries  int
	backoff     string
	backoffMin  time.Duration
	backoffMax  time.Duration
	deadLetter  string
	metricsAddr string
}

func NewConsume(open Opener) *Consume {
	return &Consume{base: base{open: open}}
}

func (c *Consume) Name() string        { return "consume" }
func (c *Consume) Description() string { return "Print and remove items until interrupted" }

func (c *Consume) Configure(flags *flag.FlagSet) {
	c.configure(flags)
	flags.IntVar(&c.limit, "limit", 0, "Stop after this many items, 0 for no limit")
	flags.DurationVar(&c.interval, "interval", time.Second, "Pause after an empty poll")
	flags.IntVar(&c.maxRetries, "max-retries", 0, "Extra attempts for an item whose output fails")
	flags.StringVar(&c.backoff, "backoff", "none", "Pause between retries: none, fixed or exponential")
	flags.DurationVar(&c.backoffMin, "backoff-delay", time.Second, "First pause between retries")
	flags.DurationVar(&c.backoffMax, "backoff-max", time.Minute, "Longest exponential pause")
	flags.StringVar(&c.deadLetter, "dead-letter", "", "Queue receiving items whose retries ran out")
	flags.StringVar(&c.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
}

func (c *Consume) Validate(ctx contracts.CliContext) error {
	if err := c.base.Validate(ctx); err != nil {
		return err
	}
	if c.limit < 0 {
		return ErrInvalidLimit.WithDetail("flag", "-limit")
	}
	if c.maxRetries < 0 {
		return ErrInvalidLimit.WithDetail("flag", "-max-retries")
	}
	_, err := queue.ParseBackoff(c.backoff, c.backoffMin, c.backoffMax)
	return err
}

func (c *Consume) Execute(cliCtx contracts.CliContext) error {
	backoff, err := queue.ParseBackoff(c.backoff, c.backoffMin, c.backoffMax)
	if err != nil {
		return err
	}

	var (
		counter   queue.Counter = queue.NoOpCounter{}
		mgrOpts   []queue.ManagerOption
		stopServe = func() {}
	)
	if c.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		m, err := metrics.New(reg)
		if err != nil {
			return err
		}
		stop, err := serveMetrics(c.metricsAddr, reg)
		if err != nil {
			return err
		}
		counter, stopServe = m, stop
		mgrOpts = append(mgrOpts, queue.WithCounter(m))
	}
	defer stopServe()

	var mu sync.Mutex
	handler := func(_ context.Context, item *queue.Item) error {
		mu.Lock()
		defer mu.Unlock()
		return printItem(cliCtx.Output(), item)
	}

	return c.withQueue(cliCtx.Context(), func(ctx context.Context, rt *Runtime, q contracts.Queue) error {
		opts := []queue.ConsumerOption{
			queue.WithInterval(c.interval),
			queue.WithMaxRetries(c.maxRetries),
			queue.WithBackoff(backoff),
			queue.WithConsumerCounter(counter),
			queue.WithConsumerLogger(rt.Logger),
		}
		if c.deadLetter != "" {
			dl, err := resolve(rt.Manager, c.deadLetter)
			if err != nil {
				return err
			}
			opts = append(opts, queue.WithDeadLetter(dl))
		}

		consumer := queue.NewConsumer(q, handler, opts...)
		if c.limit == 0 {
			return consumer.Run(ctx)
		}
		return c.consumeN(ctx, consumer)
	}, mgrOpts...)
}

func (c *Consume) consumeN(ctx context.Context, consumer *queue.Consumer) error {
	for handled := 0; handled < c.limit; {
		ok, err := consumer.Poll(ctx)
		if err != nil {
			return err
		}
		if ok {
			handled++
			continue
		}

		timer := time.NewTimer(c.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ln)
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		<-done
	}, nil
}
