package logger

import (
	"io"
	"log/slog"
	"os"
)

type ReplaceAttrFunc func(groups []string, a slog.Attr) slog.Attr

type Option func(*settings)

type settings struct {
	level       slog.Level
	json        bool
	addSource   bool
	color       bool
	timestamps  bool
	writer      io.Writer
	replaceAttr ReplaceAttrFunc
}

func defaultSettings() *settings {
	return &settings{
		level:  slog.LevelInfo,
		writer: os.Stdout,
	}
}

func WithLevel(level slog.Level) Option {
	return func(s *settings) {
		s.level = level
	}
}

func WithJSON() Option {
	return func(s *settings) {
		s.json = true
	}
}

func WithText() Option {
	return func(s *settings) {
		s.json = false
	}
}

func WithSource() Option {
	return func(s *settings) {
		s.addSource = true
	}
}

// WithColor colours level names when the writer is a terminal.
func WithColor() Option {
	return func(s *settings) {
		s.color = true
	}
}

// WithTimestamps prefixes text records with their RFC 3339 time. JSON
// records always carry it.
func WithTimestamps() Option {
	return func(s *settings) {
		s.timestamps = true
	}
}

// WithWriter sets the destination; nil discards everything.
func WithWriter(w io.Writer) Option {
	return func(s *settings) {
		if w == nil {
			w = io.Discard
		}
		s.writer = w
	}
}

// WithReplaceAttr adds f to the attribute rewriting chain. Functions run
// in the order they were given, before level names are applied.
func WithReplaceAttr(f ReplaceAttrFunc) Option {
	return func(s *settings) {
		s.replaceAttr = chain(s.replaceAttr, f)
	}
}

func chain(first, next ReplaceAttrFunc) ReplaceAttrFunc {
	if first == nil {
		return next
	}
	if next == nil {
		return first
	}
	return func(groups []string, a slog.Attr) slog.Attr {
		a = first(groups, a)
		if a.Equal(slog.Attr{}) {
			return a
		}
		return next(groups, a)
	}
}

func nameLevels(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if level, ok := a.Value.Any().(slog.Level); ok {
		return slog.String(slog.LevelKey, LevelName(level))
	}
	return a
}
