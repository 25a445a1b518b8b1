package sqs

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/shuldan/queues/pkg/contracts"
	"github.com/shuldan/queues/pkg/logger"
	"github.com/shuldan/queues/pkg/queue"
)

const DriverName = "sqs"

func init() {
	queue.Register(DriverName, factory)
}

// API is the part of *sqs.Client the adapter uses.
type API interface {
	CreateQueue(ctx context.Context, params *sqs.CreateQueueInput, optFns ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error)
	DeleteQueue(ctx context.Context, params *sqs.DeleteQueueInput, optFns ...func(*sqs.Options)) (*sqs.DeleteQueueOutput, error)
	ListQueues(ctx context.Context, params *sqs.ListQueuesInput, optFns ...func(*sqs.Options)) (*sqs.ListQueuesOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

var _ API = (*sqs.Client)(nil)

// Settings is the "sqs" driver section.
type Settings struct {
	Region   string `validate:"required"`
	Key      string `validate:"required_with=Secret"`
	Secret   string `validate:"required_with=Key"`
	Endpoint string `validate:"omitempty,url"`
}

// DefaultAttributes are applied to every queue the driver creates unless
// the queue overrides them.
var DefaultAttributes = map[string]string{
	"VisibilityTimeout": "60",
}

type Driver struct {
	client     API
	attributes map[string]string
	logger     contracts.Logger
}

type DriverOption func(*Driver)

// WithDefaultAttributes replaces the manager level attribute defaults.
func WithDefaultAttributes(attrs map[string]string) DriverOption {
	return func(d *Driver) {
		d.attributes = copyAttributes(attrs)
	}
}

func WithLogger(l contracts.Logger) DriverOption {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

func NewDriver(client API, opts ...DriverOption) *Driver {
	d := &Driver{
		client:     client,
		attributes: copyAttributes(DefaultAttributes),
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func factory(cfg contracts.Config, log contracts.Logger) (queue.Driver, error) {
	settings := Settings{
		Region:   cfg.GetString("region", "us_e1"),
		Key:      cfg.GetString("key"),
		Secret:   cfg.GetString("secret"),
		Endpoint: cfg.GetString("endpoint"),
	}
	if err := queue.ValidateConfig(DriverName, &settings); err != nil {
		return nil, err
	}

	client, err := NewClient(context.Background(), settings)
	if err != nil {
		return nil, err
	}

	opts := []DriverOption{WithLogger(log)}
	if cfg.Has("default_attributes") {
		opts = append(opts, WithDefaultAttributes(stringMap(cfg.Get("default_attributes"))))
	}
	return NewDriver(client, opts...), nil
}

// NewClient builds an SQS client. Static credentials are used when a key
// is given, otherwise the default AWS credential chain applies.
func NewClient(ctx context.Context, s Settings) (*sqs.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(ResolveRegion(s.Region)),
	}
	if s.Key != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.Key, s.Secret, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, queue.ErrInvalidDriverConfig.
			WithDetail("driver", DriverName).
			WithDetail("reason", err.Error()).
			WithCause(err)
	}

	return sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if s.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.Endpoint)
		}
	}), nil
}

// Open reads the queue settings: url_name, url, attributes and
// wait_time_seconds.
func (d *Driver) Open(name string, cfg contracts.Config) (contracts.Queue, error) {
	q := &Queue{
		Base:       queue.NewBase(name, d.logger),
		client:     d.client,
		defaults:   d.attributes,
		attributes: map[string]string{},
	}
	if cfg == nil {
		return q, nil
	}

	q.urlName = cfg.GetString("url_name")
	q.url = cfg.GetString("url")
	if cfg.Has("attributes") {
		q.attributes = stringMap(cfg.Get("attributes"))
	}
	wait := cfg.GetInt("wait_time_seconds", 0)
	if wait < 0 || wait > 20 {
		return nil, queue.ErrInvalidDriverConfig.
			WithDetail("driver", DriverName).
			WithDetail("reason", fmt.Sprintf("wait_time_seconds %d is outside 0..20", wait))
	}
	q.waitTime = int32(wait)
	return q, nil
}

var regionAliases = map[string]string{
	"us_e1":    "us-east-1",
	"us_w1":    "us-west-1",
	"us_w2":    "us-west-2",
	"eu_w1":    "eu-west-1",
	"apac_se1": "ap-southeast-1",
	"apac_se2": "ap-southeast-2",
	"apac_ne1": "ap-northeast-1",
	"sa_e1":    "sa-east-1",
}

// ResolveRegion maps the short region aliases onto AWS region ids and
// passes anything else through.
func ResolveRegion(region string) string {
	if id, ok := regionAliases[region]; ok {
		return id
	}
	return region
}

func stringMap(v any) map[string]string {
	out := map[string]string{}
	switch m := v.(type) {
	case map[string]string:
		for k, val := range m {
			out[k] = val
		}
	case map[string]any:
		for k, val := range m {
			out[k] = attributeValue(val)
		}
	case map[any]any:
		for k, val := range m {
			out[fmt.Sprint(k)] = attributeValue(val)
		}
	}
	return out
}

// attributeValue renders numbers in plain decimal form; SQS rejects
// exponents such as "1.2096e+06".
func attributeValue(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case bool:
		return strconv.FormatBool(n)
	}
	return fmt.Sprint(v)
}

func copyAttributes(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
