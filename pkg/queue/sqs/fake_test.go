package sqs

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const fakeURLBase = "https://sqs.fake.local/000000000000/"

type fakeMessage struct {
	id        string
	body      string
	receipt   string
	invisible time.Time
}

type fakeQueue struct {
	name       string
	attributes map[string]string
	messages   []*fakeMessage
}

// fakeSQS is an in-memory SQS: queues keep insertion order, received
// messages stay invisible for VisibilityTimeout seconds and every receive
// issues a new receipt handle.
type fakeSQS struct {
	mu       sync.Mutex
	now      time.Time
	pageSize int
	queues   []*fakeQueue
	seq      int

	createErr error
	listErr   error

	createCalls int
	listCalls   int
	lastWait    int32
}

func newFakeSQS() *fakeSQS {
	return &fakeSQS{now: time.Unix(1_700_000_000, 0), pageSize: 1000}
}

var _ API = (*fakeSQS)(nil)

func (f *fakeSQS) advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func (f *fakeSQS) find(url string) *fakeQueue {
	for _, q := range f.queues {
		if fakeURLBase+q.name == url {
			return q
		}
	}
	return nil
}

func (f *fakeSQS) queue(name string) *fakeQueue {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.find(fakeURLBase + name)
}

func (f *fakeSQS) dropQueue(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, q := range f.queues {
		if q.name == name {
			f.queues = append(f.queues[:i], f.queues[i+1:]...)
			return
		}
	}
}

func (f *fakeSQS) inject(name, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := f.find(fakeURLBase + name)
	f.seq++
	q.messages = append(q.messages, &fakeMessage{id: "msg-" + strconv.Itoa(f.seq), body: body})
}

func (f *fakeSQS) next(prefix string) string {
	f.seq++
	return prefix + strconv.Itoa(f.seq)
}

func (f *fakeSQS) CreateQueue(_ context.Context, in *sqs.CreateQueueInput, _ ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	name := aws.ToString(in.QueueName)
	if f.find(fakeURLBase+name) == nil {
		attrs := map[string]string{}
		for k, v := range in.Attributes {
			attrs[k] = v
		}
		f.queues = append(f.queues, &fakeQueue{name: name, attributes: attrs})
	}
	return &sqs.CreateQueueOutput{QueueUrl: aws.String(fakeURLBase + name)}, nil
}

func (f *fakeSQS) DeleteQueue(_ context.Context, in *sqs.DeleteQueueInput, _ ...func(*sqs.Options)) (*sqs.DeleteQueueOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	url := aws.ToString(in.QueueUrl)
	for i, q := range f.queues {
		if fakeURLBase+q.name == url {
			f.queues = append(f.queues[:i], f.queues[i+1:]...)
			return &sqs.DeleteQueueOutput{}, nil
		}
	}
	return nil, &types.QueueDoesNotExist{Message: aws.String("no queue " + url)}
}

func (f *fakeSQS) ListQueues(_ context.Context, in *sqs.ListQueuesInput, _ ...func(*sqs.Options)) (*sqs.ListQueuesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}

	var urls []string
	for _, q := range f.queues {
		if strings.HasPrefix(q.name, aws.ToString(in.QueueNamePrefix)) {
			urls = append(urls, fakeURLBase+q.name)
		}
	}

	start := 0
	if in.NextToken != nil {
		start, _ = strconv.Atoi(*in.NextToken)
	}
	size := f.pageSize
	if in.MaxResults != nil && int(*in.MaxResults) < size {
		size = int(*in.MaxResults)
	}
	end := start + size
	out := &sqs.ListQueuesOutput{}
	if end < len(urls) {
		out.NextToken = aws.String(strconv.Itoa(end))
	} else {
		end = len(urls)
	}
	if start < end {
		out.QueueUrls = urls[start:end]
	}
	return out, nil
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := f.find(aws.ToString(in.QueueUrl))
	if q == nil {
		return nil, &types.QueueDoesNotExist{Message: aws.String("no queue")}
	}
	msg := &fakeMessage{id: f.next("msg-"), body: aws.ToString(in.MessageBody)}
	q.messages = append(q.messages, msg)
	return &sqs.SendMessageOutput{MessageId: aws.String(msg.id)}, nil
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastWait = in.WaitTimeSeconds
	q := f.find(aws.ToString(in.QueueUrl))
	if q == nil {
		return nil, &types.QueueDoesNotExist{Message: aws.String("no queue")}
	}

	visibility, _ := strconv.Atoi(q.attributes["VisibilityTimeout"])
	if in.VisibilityTimeout > 0 {
		visibility = int(in.VisibilityTimeout)
	}

	out := &sqs.ReceiveMessageOutput{}
	for _, msg := range q.messages {
		if len(out.Messages) >= int(in.MaxNumberOfMessages) {
			break
		}
		if f.now.Before(msg.invisible) {
			continue
		}
		msg.receipt = f.next("receipt-")
		msg.invisible = f.now.Add(time.Duration(visibility) * time.Second)
		out.Messages = append(out.Messages, types.Message{
			MessageId:     aws.String(msg.id),
			ReceiptHandle: aws.String(msg.receipt),
			Body:          aws.String(msg.body),
		})
	}
	return out, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := f.find(aws.ToString(in.QueueUrl))
	if q == nil {
		return nil, &types.QueueDoesNotExist{Message: aws.String("no queue")}
	}
	receipt := aws.ToString(in.ReceiptHandle)
	for i, msg := range q.messages {
		if msg.receipt != "" && msg.receipt == receipt {
			q.messages = append(q.messages[:i], q.messages[i+1:]...)
			return &sqs.DeleteMessageOutput{}, nil
		}
	}
	return nil, &types.ReceiptHandleIsInvalid{Message: aws.String("unknown receipt " + receipt)}
}
