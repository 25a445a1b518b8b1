package config

// Loader produces one configuration layer.
type Loader interface {
	Load() (map[string]any, error)
}
