package logger

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/shuldan/queues/pkg/config"
)

func settingsFrom(values map[string]any) *settings {
	s := defaultSettings()
	for _, opt := range optionsFromConfig(config.NewMapConfig(values)) {
		opt(s)
	}
	return s
}

func TestOptionsFromConfig(t *testing.T) {
	s := settingsFrom(map[string]any{
		"level":      "debug",
		"format":     "JSON",
		"add_source": true,
		"timestamps": true,
		"output":     "discard",
	})

	if s.level != slog.LevelDebug {
		t.Errorf("expected debug, got %v", s.level)
	}
	if !s.json || !s.addSource || !s.timestamps {
		t.Errorf("expected json, source and timestamps, got %+v", s)
	}
	if s.color {
		t.Error("expected no colour")
	}
	if s.writer != io.Discard {
		t.Error("expected the discard writer")
	}
}

func TestOptionsFromConfig_Aliases(t *testing.T) {
	s := settingsFrom(map[string]any{
		"include_caller": true,
		"enable_colors":  true,
		"output":         "stderr",
	})
	if !s.addSource || !s.color {
		t.Errorf("expected aliases to apply, got %+v", s)
	}
	if s.writer != os.Stderr {
		t.Error("expected stderr")
	}
}

func TestOptionsFromConfig_Defaults(t *testing.T) {
	s := settingsFrom(nil)
	if s.level != slog.LevelInfo || s.json || s.timestamps {
		t.Errorf("unexpected defaults %+v", s)
	}
	if s.writer != os.Stdout {
		t.Error("expected stdout")
	}
}

func TestNewFromConfig(t *testing.T) {
	l, err := NewFromConfig(config.NewMapConfig(map[string]any{"output": "discard", "level": "trace"}))
	if err != nil {
		t.Fatal(err)
	}
	l.Trace("dropped")

	if _, err := NewFromConfig(nil); err != nil {
		t.Fatal(err)
	}
}
