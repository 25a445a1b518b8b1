package config

import (
	"encoding/json"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/shuldan/queues/pkg/errors"
)

type decodeFunc func(data []byte, out *map[string]any) error

// fileLoader reads the first readable file among paths and decodes it.
// Missing or unreadable files are skipped; a decode failure is fatal.
type fileLoader struct {
	paths    []string
	decode   decodeFunc
	parseErr *errors.Error
}

func (l *fileLoader) Load() (map[string]any, error) {
	for _, path := range l.paths {
		if !fileExists(path) {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var config map[string]any
		if err = l.decode(data, &config); err != nil {
			return nil, l.parseErr.
				WithDetail("path", path).
				WithDetail("reason", err.Error()).
				WithCause(err)
		}
		if config == nil {
			config = make(map[string]any)
		}
		return config, nil
	}

	return nil, ErrNoConfigSource.WithDetail("loader", "file")
}

func decodeYAML(data []byte, out *map[string]any) error {
	return yaml.UnmarshalWithOptions(data, out, yaml.UseJSONUnmarshaler())
}

func decodeJSON(data []byte, out *map[string]any) error {
	return json.Unmarshal(data, out)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
