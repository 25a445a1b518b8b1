package config

import (
	"os"
	"strconv"
	"strings"
)

// envConfigLoader maps PREFIX_QUEUES__DEFAULT=sqs to queues.default.
type envConfigLoader struct {
	prefix string
}

func (l *envConfigLoader) Load() (map[string]any, error) {
	values := make(map[string]any)

	for _, kv := range os.Environ() {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		path := strings.Split(strings.ToLower(strings.TrimPrefix(name, l.prefix)), "__")
		assign(values, path, envValue(raw))
	}

	return values, nil
}

// envValue keeps "1" and "0" numeric; only true/false words become bools.
func envValue(raw string) any {
	if i, err := strconv.Atoi(raw); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	}
	return raw
}

func assign(section map[string]any, path []string, value any) {
	for _, key := range path[:len(path)-1] {
		child, ok := section[key].(map[string]any)
		if !ok {
			child = make(map[string]any)
			section[key] = child
		}
		section = child
	}
	section[path[len(path)-1]] = value
}
