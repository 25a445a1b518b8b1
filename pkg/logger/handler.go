package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"
	"unicode"

	"golang.org/x/term"
)

// textHandler writes one line per record:
//
//	[time ]LEVEL message key=value group.key="quoted value"
type textHandler struct {
	mu          *sync.Mutex
	writer      io.Writer
	level       slog.Leveler
	color       bool
	timestamps  bool
	replaceAttr ReplaceAttrFunc
	groups      []string
	attrs       []byte
}

func newTextHandler(w io.Writer, s *settings) *textHandler {
	return &textHandler{
		mu:          &sync.Mutex{},
		writer:      w,
		level:       s.level,
		color:       s.color && isTerminal(w),
		timestamps:  s.timestamps,
		replaceAttr: s.replaceAttr,
	}
}

func (h *textHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *textHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)
	if h.timestamps && !r.Time.IsZero() {
		buf = r.Time.AppendFormat(buf, time.RFC3339)
		buf = append(buf, ' ')
	}

	level := h.levelName(r.Level)
	if h.color {
		level = colorize(level, r.Level)
	}
	buf = append(buf, level...)
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)
	buf = append(buf, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		buf = h.appendAttr(buf, h.groups, a)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf)
	return err
}

func (h *textHandler) levelName(level slog.Level) string {
	if h.replaceAttr == nil {
		return LevelName(level)
	}
	a := h.replaceAttr(nil, slog.Any(slog.LevelKey, level))
	if a.Key == "" {
		return LevelName(level)
	}
	return a.Value.String()
}

func (h *textHandler) appendAttr(buf []byte, groups []string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if h.replaceAttr != nil && a.Value.Kind() != slog.KindGroup {
		a = h.replaceAttr(groups, a)
		a.Value = a.Value.Resolve()
	}
	if a.Equal(slog.Attr{}) {
		return buf
	}

	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			groups = append(groups[:len(groups):len(groups)], a.Key)
		}
		for _, ga := range a.Value.Group() {
			buf = h.appendAttr(buf, groups, ga)
		}
		return buf
	}
	if a.Key == "" {
		return buf
	}

	buf = append(buf, ' ')
	for _, g := range groups {
		buf = append(buf, g...)
		buf = append(buf, '.')
	}
	buf = append(buf, a.Key...)
	buf = append(buf, '=')
	return appendValue(buf, a.Value)
}

func appendValue(buf []byte, v slog.Value) []byte {
	var s string
	if v.Kind() == slog.KindTime {
		s = v.Time().Format(time.RFC3339)
	} else {
		s = v.String()
	}
	if needsQuoting(s) {
		return strconv.AppendQuote(buf, s)
	}
	return append(buf, s...)
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r == '"' || r == '=' || unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return true
		}
	}
	return false
}

func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = append([]byte(nil), h.attrs...)
	for _, a := range attrs {
		clone.attrs = h.appendAttr(clone.attrs, h.groups, a)
	}
	return &clone
}

func (h *textHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(h.groups[:len(h.groups):len(h.groups)], name)
	return &clone
}

func colorize(name string, level slog.Level) string {
	const reset = "\033[0m"

	var code string
	switch {
	case level <= levelTrace:
		code = "\033[36m"
	case level < slog.LevelInfo:
		code = "\033[34m"
	case level < slog.LevelWarn:
		code = "\033[32m"
	case level < slog.LevelError:
		code = "\033[33m"
	case level < levelCritical:
		code = "\033[31m"
	default:
		code = "\033[41m\033[37m"
	}
	return code + name + reset
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
