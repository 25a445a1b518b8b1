package sqs

import (
	"context"
	"encoding/base64"
	"regexp"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/shuldan/queues/pkg/contracts"
	"github.com/shuldan/queues/pkg/errors"
	"github.com/shuldan/queues/pkg/queue"
)

var invalidURLChars = regexp.MustCompile(`[^A-Za-z0-9-]`)

// URLName turns a logical queue name into a valid SQS queue name.
func URLName(name string) string {
	return invalidURLChars.ReplaceAllString(name, "-")
}

// Queue maps a logical queue onto one SQS queue. Items are JSON, base64
// encoded in the message body. The receipt handle of a received message
// is the item handler.
type Queue struct {
	queue.Base
	client     API
	defaults   map[string]string
	attributes map[string]string
	urlName    string
	waitTime   int32

	urlMu sync.RWMutex
	url   string
}

var _ contracts.Queue = (*Queue)(nil)

func (q *Queue) SetName(name string) {
	q.Base.SetName(name)
	if q.urlName == "" {
		q.setURL("")
	}
}

func (q *Queue) URLName() string {
	if q.urlName != "" {
		return q.urlName
	}
	return URLName(q.Name())
}

// URL returns the cached queue URL, empty until the queue has been found
// or created.
func (q *Queue) URL() string {
	q.urlMu.RLock()
	defer q.urlMu.RUnlock()
	return q.url
}

func (q *Queue) setURL(url string) {
	q.urlMu.Lock()
	q.url = url
	q.urlMu.Unlock()
}

// Attributes merges the queue attributes over the driver defaults.
func (q *Queue) Attributes() map[string]string {
	attrs := copyAttributes(q.defaults)
	for k, v := range q.attributes {
		attrs[k] = v
	}
	return attrs
}

func (q *Queue) Exists(ctx context.Context) (bool, error) {
	if q.URL() != "" {
		return true, nil
	}
	url, err := q.lookup(ctx)
	if err != nil {
		return false, queue.ErrBackend.WithDetail("queue", q.Name()).WithDetail("op", queue.OpExists).WithCause(err)
	}
	if url == "" {
		return false, nil
	}
	q.setURL(url)
	return true, nil
}

func (q *Queue) lookup(ctx context.Context) (string, error) {
	name := q.URLName()
	pages := sqs.NewListQueuesPaginator(q.client, &sqs.ListQueuesInput{
		QueueNamePrefix: aws.String(name),
	}, func(o *sqs.ListQueuesPaginatorOptions) {
		o.Limit = 1000
	})
	for pages.HasMorePages() {
		out, err := pages.NextPage(ctx)
		if err != nil {
			return "", err
		}
		for _, url := range out.QueueUrls {
			if strings.HasSuffix(url, "/"+name) {
				return url, nil
			}
		}
	}
	return "", nil
}

func (q *Queue) Create(ctx context.Context) error {
	exists, err := q.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	out, err := q.client.CreateQueue(ctx, &sqs.CreateQueueInput{
		QueueName:  aws.String(q.URLName()),
		Attributes: q.Attributes(),
	})
	if err != nil {
		return queue.ErrNotMaterialized.WithDetail("queue", q.Name()).WithCause(err)
	}
	url := aws.ToString(out.QueueUrl)
	q.setURL(url)
	q.Log().Info("queue has been created at the URL", "url", url)
	return nil
}

func (q *Queue) Destroy(ctx context.Context) error {
	exists, err := q.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	url := q.URL()
	if _, err := q.client.DeleteQueue(ctx, &sqs.DeleteQueueInput{QueueUrl: aws.String(url)}); err != nil && !isMissingQueue(err) {
		return queue.ErrBackend.WithDetail("queue", q.Name()).WithDetail("op", queue.OpDestroy).WithCause(err)
	}
	q.setURL("")
	q.Log().Info("queue has been destroyed", "url", url)
	return nil
}

// ensure returns the queue URL, creating the queue if needed.
func (q *Queue) ensure(ctx context.Context) (string, error) {
	if url := q.URL(); url != "" {
		return url, nil
	}
	if err := q.Create(ctx); err != nil {
		return "", err
	}
	return q.URL(), nil
}

func (q *Queue) Add(ctx context.Context, item *queue.Item) (bool, error) {
	if item == nil {
		return false, queue.ErrInvalidItem.WithDetail("reason", "nil item")
	}
	payload, err := queue.EncodeData(item.Data)
	if err != nil {
		return false, err
	}

	url, err := q.ensure(ctx)
	if err != nil {
		if errors.Is(err, queue.ErrNotMaterialized) {
			return false, err
		}
		q.Log().Error("unable to add new item", "error", err)
		return false, nil
	}

	out, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(url),
		MessageBody: aws.String(base64.StdEncoding.EncodeToString(payload)),
	})
	if err != nil {
		q.forgetIfMissing(err)
		q.Log().Error("unable to add new item", "error", err)
		return false, nil
	}

	item.ID = aws.ToString(out.MessageId)
	q.Log().Info("new item added", "id", item.ID)
	return true, nil
}

func (q *Queue) Get(ctx context.Context) (*queue.Item, error) {
	url, err := q.ensure(ctx)
	if err != nil {
		if errors.Is(err, queue.ErrNotMaterialized) {
			return nil, err
		}
		q.Log().Error("unable to get item", "error", err)
		return nil, nil
	}

	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(url),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     q.waitTime,
	})
	if err != nil {
		q.forgetIfMissing(err)
		q.Log().Error("unable to get item", "error", err)
		return nil, nil
	}
	if len(out.Messages) == 0 {
		q.Log().Info("unable to get item: queue is empty")
		return nil, nil
	}

	msg := out.Messages[0]
	id := aws.ToString(msg.MessageId)
	raw, err := base64.StdEncoding.DecodeString(aws.ToString(msg.Body))
	if err != nil {
		q.Log().Error("unable to decode item", "id", id, "error", err)
		return nil, nil
	}
	data, err := queue.DecodeData(raw)
	if err != nil {
		q.Log().Error("unable to decode item", "id", id, "error", err)
		return nil, nil
	}

	q.Log().Info("get item", "id", id)
	return &queue.Item{ID: id, Handler: aws.ToString(msg.ReceiptHandle), Data: data}, nil
}

func (q *Queue) Remove(ctx context.Context, handler any) (bool, error) {
	receipt, ok := handler.(string)
	if !ok || receipt == "" {
		return false, q.InvalidHandler(handler)
	}

	exists, err := q.Exists(ctx)
	if err != nil || !exists {
		q.Log().Error("unable to remove item", "error", err, "exists", exists)
		return false, nil
	}

	_, err = q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.URL()),
		ReceiptHandle: aws.String(receipt),
	})
	if err != nil {
		q.forgetIfMissing(err)
		q.Log().Error("unable to remove item", "error", err)
		return false, nil
	}

	q.Log().Info("item handler has been removed")
	return true, nil
}

// forgetIfMissing drops the cached URL when SQS reports the queue gone, so
// the next call looks it up (and recreates it) again.
func (q *Queue) forgetIfMissing(err error) {
	if isMissingQueue(err) {
		q.setURL("")
	}
}

func isMissingQueue(err error) bool {
	var missing *types.QueueDoesNotExist
	return errors.As(err, &missing)
}
