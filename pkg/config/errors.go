package config

import "github.com/shuldan/queues/pkg/errors"

var newConfigCode = errors.WithPrefix("CONFIG")

var (
	ErrNoConfigSource = newConfigCode().New("no valid configuration source found. Loader: {{.loader}}").Of(errors.ErrConfiguration)
	ErrParseYAML      = newConfigCode().New("failed to parse YAML file {{.path}}: {{.reason}}").Of(errors.ErrConfiguration)
	ErrParseJSON      = newConfigCode().New("failed to parse JSON file {{.path}}: {{.reason}}").Of(errors.ErrConfiguration)
	ErrTemplate       = newConfigCode().New("failed to render configuration value {{.key}}: {{.reason}}").Of(errors.ErrConfiguration)
	ErrRequiredValue  = newConfigCode().New("required value {{.name}} is empty").Of(errors.ErrConfiguration)
)
