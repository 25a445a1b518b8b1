package config

import "github.com/shuldan/queues/pkg/errors"

// chainLoader merges layers in order, later ones winning key by key.
// Layers reporting ErrNoConfigSource are skipped; any other failure
// aborts the load.
type chainLoader struct {
	loaders []Loader
}

func (c *chainLoader) Load() (map[string]any, error) {
	merged := make(map[string]any)
	var skipped error

	for _, loader := range c.loaders {
		layer, err := loader.Load()
		if errors.Is(err, ErrNoConfigSource) {
			skipped = err
			continue
		}
		if err != nil {
			return nil, err
		}
		merge(merged, layer)
	}

	if len(merged) == 0 {
		if skipped == nil {
			return nil, ErrNoConfigSource.WithDetail("loader", "chain")
		}
		return nil, ErrNoConfigSource.WithDetail("loader", "chain").WithCause(skipped)
	}
	return merged, nil
}

// merge copies src into dst, descending into sections present in both.
func merge(dst, src map[string]any) {
	for k, v := range src {
		srcSection, ok := asSection(v)
		if !ok {
			dst[k] = v
			continue
		}
		dstSection, ok := asSection(dst[k])
		if !ok {
			dstSection = make(map[string]any, len(srcSection))
		}
		merge(dstSection, srcSection)
		dst[k] = dstSection
	}
}

func asSection(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		return stringKeys(m), true
	}
	return nil, false
}
