package config

import (
	"path/filepath"
	"strings"

	"github.com/shuldan/queues/pkg/contracts"
)

var (
	_ Loader = (*envConfigLoader)(nil)
	_ Loader = (*fileLoader)(nil)
	_ Loader = (*chainLoader)(nil)
)

func NewEnvConfigLoader(prefix string) Loader {
	return &envConfigLoader{prefix: prefix}
}

func NewYamlConfigLoader(paths ...string) Loader {
	return &fileLoader{paths: paths, decode: decodeYAML, parseErr: ErrParseYAML}
}

func NewJSONConfigLoader(paths ...string) Loader {
	return &fileLoader{paths: paths, decode: decodeJSON, parseErr: ErrParseJSON}
}

func NewChainLoader(loaders ...Loader) Loader {
	return &chainLoader{loaders: loaders}
}

func NewMapConfig(values map[string]any) contracts.Config {
	if values == nil {
		values = make(map[string]any)
	}
	return &MapConfig{values: values}
}

// Load layers the given files (json by extension, yaml otherwise) under
// environment variables carrying envPrefix, then renders templates.
func Load(envPrefix string, paths ...string) (contracts.Config, error) {
	var jsonPaths, yamlPaths []string
	for _, p := range paths {
		if strings.EqualFold(filepath.Ext(p), ".json") {
			jsonPaths = append(jsonPaths, p)
			continue
		}
		yamlPaths = append(yamlPaths, p)
	}

	loaders := make([]Loader, 0, 3)
	if len(yamlPaths) > 0 {
		loaders = append(loaders, NewYamlConfigLoader(yamlPaths...))
	}
	if len(jsonPaths) > 0 {
		loaders = append(loaders, NewJSONConfigLoader(jsonPaths...))
	}
	if envPrefix != "" {
		loaders = append(loaders, NewEnvConfigLoader(envPrefix))
	}

	values, err := newTemplatedLoader(NewChainLoader(loaders...)).Load()
	if err != nil {
		return nil, err
	}
	return NewMapConfig(values), nil
}
