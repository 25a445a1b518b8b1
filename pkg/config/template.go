package config

import (
	"bytes"
	"os"
	"strconv"
	"strings"
	"text/template"
)

// templatedLoader renders every string value holding "{{" as a
// text/template. The environment is the template data, so both
// {{ .QUEUES_DSN }} and {{ env "QUEUES_DSN" }} work.
type templatedLoader struct {
	loader Loader
}

func newTemplatedLoader(loader Loader) Loader {
	return &templatedLoader{loader: loader}
}

func (t *templatedLoader) Load() (map[string]any, error) {
	raw, err := t.loader.Load()
	if err != nil {
		return nil, err
	}

	r := &renderer{env: environ()}
	out, err := r.value("", raw)
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

type renderer struct {
	env map[string]string
}

func (r *renderer) value(path string, v any) (any, error) {
	switch val := v.(type) {
	case string:
		if !strings.Contains(val, "{{") {
			return val, nil
		}
		return r.render(path, val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			rendered, err := r.value(join(path, k), item)
			if err != nil {
				return nil, err
			}
			out[k] = rendered
		}
		return out, nil
	case map[any]any:
		return r.value(path, stringKeys(val))
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			rendered, err := r.value(join(path, strconv.Itoa(i)), item)
			if err != nil {
				return nil, err
			}
			out[i] = rendered
		}
		return out, nil
	}
	return v, nil
}

func (r *renderer) render(path, input string) (string, error) {
	tmpl, err := template.New(path).Option("missingkey=zero").Funcs(funcMap).Parse(input)
	if err == nil {
		var buf bytes.Buffer
		if err = tmpl.Execute(&buf, r.env); err == nil {
			return buf.String(), nil
		}
	}
	return "", ErrTemplate.
		WithDetail("key", path).
		WithDetail("reason", err.Error()).
		WithCause(err)
}

var funcMap = template.FuncMap{
	"env":   os.Getenv,
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	// default "x" .VAR yields x when VAR is unset or empty.
	"default": func(def string, val any) string {
		if s, ok := val.(string); ok && s != "" {
			return s
		}
		return def
	},
	// required fails the load when the value is empty.
	"required": func(name string, val any) (string, error) {
		if s, ok := val.(string); ok && s != "" {
			return s, nil
		}
		return "", ErrRequiredValue.WithDetail("name", name)
	},
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
