package queue

import (
	"encoding/json"

	"github.com/shuldan/queues/pkg/contracts"
)

type Item = contracts.QueueItem

// NewItem wraps data into an item ready for Add. A nil map becomes empty.
func NewItem(data map[string]any) *Item {
	if data == nil {
		data = make(map[string]any)
	}
	return &Item{Data: data}
}

// EncodeData serializes an item payload into the JSON text stored by
// every backend.
func EncodeData(data map[string]any) ([]byte, error) {
	if data == nil {
		data = map[string]any{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, ErrInvalidItem.WithDetail("reason", err.Error()).WithCause(err)
	}
	return b, nil
}

// DecodeData restores a payload written by EncodeData. Anything but a JSON
// object is rejected.
func DecodeData(raw []byte) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, ErrCorruptItem.WithDetail("reason", err.Error()).WithCause(err)
	}
	if data == nil {
		return nil, ErrCorruptItem.WithDetail("reason", "payload is not an object")
	}
	return data, nil
}
