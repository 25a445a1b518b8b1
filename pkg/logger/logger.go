package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/shuldan/queues/pkg/contracts"
)

const (
	missingKey = "!MISSING_KEY"
	badKey     = "!BAD_KEY"
)

type sLogger struct {
	*slog.Logger
}

var _ contracts.Logger = (*sLogger)(nil)

// Nop returns a logger that drops every record.
func Nop() contracts.Logger {
	return &sLogger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func NewLogger(opts ...Option) (contracts.Logger, error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(s)
	}
	s.replaceAttr = chain(s.replaceAttr, nameLevels)

	var handler slog.Handler
	if s.json {
		handler = slog.NewJSONHandler(s.writer, &slog.HandlerOptions{
			Level:       s.level,
			AddSource:   s.addSource,
			ReplaceAttr: s.replaceAttr,
		})
	} else {
		handler = newTextHandler(s.writer, s)
	}
	return &sLogger{Logger: slog.New(handler)}, nil
}

func (l *sLogger) Trace(msg string, args ...any) {
	l.log(levelTrace, msg, args)
}

func (l *sLogger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args)
}

func (l *sLogger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args)
}

func (l *sLogger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args)
}

func (l *sLogger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args)
}

func (l *sLogger) Critical(msg string, args ...any) {
	l.log(levelCritical, msg, args)
}

func (l *sLogger) With(args ...any) contracts.Logger {
	return &sLogger{Logger: slog.New(l.Handler().WithAttrs(toAttrs(args)))}
}

func (l *sLogger) log(level slog.Level, msg string, args []any) {
	ctx := context.Background()
	if !l.Enabled(ctx, level) {
		return
	}
	l.LogAttrs(ctx, level, msg, toAttrs(args)...)
}

// toAttrs pairs args into attributes. A trailing value without a key is
// kept under missingKey and a key that is not a string under badKey.
func toAttrs(args []any) []slog.Attr {
	attrs := make([]slog.Attr, 0, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		if a, ok := args[i].(slog.Attr); ok {
			attrs = append(attrs, a)
			i--
			continue
		}
		if i+1 == len(args) {
			attrs = append(attrs, slog.Any(missingKey, args[i]))
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("%s(%T)", badKey, args[i])
		}
		attrs = append(attrs, slog.Any(key, args[i+1]))
	}
	return attrs
}
