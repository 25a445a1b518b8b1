package redis

import (
	"encoding/json"
	"time"

	"github.com/shuldan/queues/pkg/queue/broker"
)

type streamMessage struct {
	Unique     string `json:"unique"`
	Data       []byte `json:"data"`
	EnqueuedAt string `json:"enqueued_at"`
}

func encodeMessage(unique string, workload []byte) (map[string]interface{}, error) {
	data, err := json.Marshal(streamMessage{
		Unique:     unique,
		Data:       workload,
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"payload": string(data)}, nil
}

func decodeMessage(values map[string]interface{}) (streamMessage, error) {
	var msg streamMessage
	payload, ok := values["payload"].(string)
	if !ok {
		return msg, broker.ErrProtocol.WithDetail("reason", "missing or invalid 'payload' field")
	}
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return msg, broker.ErrProtocol.WithDetail("reason", err.Error()).WithCause(err)
	}
	return msg, nil
}
