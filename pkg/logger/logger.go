package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var (
	Log             *slog.Logger
	defaultLevel    slog.Level
	componentLevels map[string]slog.Level
	levelsMu        sync.RWMutex
	format          string
	output          io.Writer
	pid             int
	loggerCache     sync.Map
)

func init() {
	defaultLevel = slog.LevelInfo
	componentLevels = make(map[string]slog.Level)
	format = "text"
	output = os.Stderr
	pid = os.Getpid()

	Log = slog.New(NewTextHandler(output, ""))
}

// Configure resets the default level, per-component overrides and output
// format. Loggers handed out by Get before the call keep their old handler.
func Configure(logFormat, level string, components map[string]string) {
	levelsMu.Lock()
	defaultLevel = parseLevel(level)
	format = strings.ToLower(logFormat)
	componentLevels = make(map[string]slog.Level)
	for name, lvl := range components {
		componentLevels[name] = parseLevel(lvl)
	}
	levelsMu.Unlock()

	loggerCache = sync.Map{}
	Log = slog.New(newHandler(""))
}

// SetOutput redirects every logger created afterwards to w.
func SetOutput(w io.Writer) {
	levelsMu.Lock()
	output = w
	levelsMu.Unlock()

	loggerCache = sync.Map{}
	Log = slog.New(newHandler(""))
}

func newHandler(component string) slog.Handler {
	levelsMu.RLock()
	w, f := output, format
	levelsMu.RUnlock()

	if f == "json" {
		return newJSONHandler(w, component)
	}
	return NewTextHandler(w, component)
}

type TextHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	attrs     []slog.Attr
	component string
}

func NewTextHandler(w io.Writer, component string) *TextHandler {
	return &TextHandler{
		mu:        &sync.Mutex{},
		w:         w,
		component: component,
	}
}

func (h *TextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= getEffectiveLevel(h.component)
}

func (h *TextHandler) Handle(ctx context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)
	buf = append(buf, r.Time.Format("2006/01/02 15:04:05.000")...)
	buf = append(buf, fmt.Sprintf(" [%d]", pid)...)
	buf = append(buf, ' ')
	buf = append(buf, r.Level.String()...)

	if h.component != "" {
		buf = append(buf, fmt.Sprintf(" [%s]", h.component)...)
	}

	buf = append(buf, ' ')
	buf = append(buf, r.Message...)

	for _, a := range h.attrs {
		buf = append(buf, fmt.Sprintf(" %s=%v", a.Key, a.Value.Any())...)
	}
	r.Attrs(func(a slog.Attr) bool {
		buf = append(buf, fmt.Sprintf(" %s=%v", a.Key, a.Value.Any())...)
		return true
	})

	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &TextHandler{
		mu:        h.mu,
		w:         h.w,
		attrs:     merged,
		component: h.component,
	}
}

func (h *TextHandler) WithGroup(name string) slog.Handler {
	return &TextHandler{
		mu:        h.mu,
		w:         h.w,
		attrs:     h.attrs,
		component: subComponent(h.component, name),
	}
}

type JSONHandler struct {
	inner     slog.Handler
	component string
}

func newJSONHandler(w io.Writer, component string) *JSONHandler {
	return &JSONHandler{
		inner: slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}),
		component: component,
	}
}

func (h *JSONHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= getEffectiveLevel(h.component)
}

func (h *JSONHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.component != "" {
		r.AddAttrs(slog.String("component", h.component))
	}
	return h.inner.Handle(ctx, r)
}

func (h *JSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &JSONHandler{
		inner:     h.inner.WithAttrs(attrs),
		component: h.component,
	}
}

func (h *JSONHandler) WithGroup(name string) slog.Handler {
	return &JSONHandler{
		inner:     h.inner,
		component: subComponent(h.component, name),
	}
}

func subComponent(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getEffectiveLevel walks up dotted component names ("probe.attempt" ->
// "probe") before falling back to the default level.
func getEffectiveLevel(component string) slog.Level {
	levelsMu.RLock()
	defer levelsMu.RUnlock()

	if level, ok := componentLevels[component]; ok {
		return level
	}

	path := component
	for {
		idx := strings.LastIndex(path, ".")
		if idx < 0 {
			break
		}
		path = path[:idx]
		if level, ok := componentLevels[path]; ok {
			return level
		}
	}

	return defaultLevel
}

func Get(name string) *slog.Logger {
	if l, ok := loggerCache.Load(name); ok {
		return l.(*slog.Logger)
	}

	l := slog.New(newHandler(name))
	loggerCache.Store(name, l)
	return l
}

func SetComponentLevel(name string, level LogLevel) {
	levelsMu.Lock()
	componentLevels[name] = parseLevel(string(level))
	levelsMu.Unlock()
}

func ClearComponentLevel(name string) {
	levelsMu.Lock()
	delete(componentLevels, name)
	levelsMu.Unlock()
}

func GetDefaultLevel() LogLevel {
	levelsMu.RLock()
	defer levelsMu.RUnlock()
	return levelToLogLevel(defaultLevel)
}

func levelToLogLevel(level slog.Level) LogLevel {
	switch level {
	case slog.LevelDebug:
		return LogLevelDebug
	case slog.LevelInfo:
		return LogLevelInfo
	case slog.LevelWarn:
		return LogLevelWarn
	case slog.LevelError:
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// WithInterface tags a logger with the interface and hardware address an
// exchange runs on.
func WithInterface(l *slog.Logger, ifname, mac string) *slog.Logger {
	args := make([]any, 0, 4)
	if ifname != "" {
		args = append(args, "interface", ifname)
	}
	if mac != "" {
		args = append(args, "mac", mac)
	}
	return l.With(args...)
}
