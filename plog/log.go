// Package plog implements the structured, leveled logger used throughout
// premintpool. It follows the shape of go-ethereum/go-probeum's `log`
// package (`log.Info("msg", "key", val, ...)`) but is built directly on
// `log/slog` instead of vendoring a bespoke record/handler pair.
package plog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Logger is the interface every component in premintpool takes a dependency
// on instead of the package-level functions, so tests can inject a recorder.
type Logger interface {
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any) // logs then os.Exit(1), matching geth's log.Crit
	With(ctx ...any) Logger
}

type logger struct {
	slog *slog.Logger
}

var root Logger = New()

// Root returns the process-wide default logger.
func Root() Logger { return root }

// SetRoot replaces the process-wide default logger, used by cmd/premintpoold
// once it has parsed --node-id.
func SetRoot(l Logger) { root = l }

// New builds a terminal-aware logger: colorized key=value output on a TTY,
// plain text otherwise. The ctx key/value pairs (cmd/premintpoold passes
// "nodeId") are attached to every record as given, empty values included,
// mirroring the `info_span!("", "node_id" = ...)` wrapping in the Rust
// original.
func New(ctx ...any) Logger {
	return newWithWriter(os.Stderr, ctx...)
}

func newWithWriter(w io.Writer, ctx ...any) Logger {
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd())
	}
	out := w
	if useColor {
		out = colorable.NewColorable(w.(*os.File))
	}
	h := &termHandler{out: out, color: useColor, level: slog.LevelInfo}
	l := &logger{slog: slog.New(h)}
	if len(ctx) > 0 {
		return l.With(ctx...)
	}
	return l
}

func (l *logger) with(level slog.Level, msg string, ctx []any) {
	l.slog.Log(context.Background(), level, msg, ctx...)
}

func (l *logger) Trace(msg string, ctx ...any) { l.with(levelTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...any) { l.with(slog.LevelDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...any)  { l.with(slog.LevelInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...any)  { l.with(slog.LevelWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...any) { l.with(slog.LevelError, msg, ctx) }
func (l *logger) Crit(msg string, ctx ...any) {
	ctx = append(ctx, "stack", stack.Trace().TrimRuntime())
	l.with(levelCrit, msg, ctx)
	os.Exit(1)
}

func (l *logger) With(ctx ...any) Logger {
	return &logger{slog: l.slog.With(ctx...)}
}

const (
	levelTrace = slog.Level(-8)
	levelCrit  = slog.Level(12)
)

// termHandler is a minimal slog.Handler that renders records the way geth's
// terminal log format does: "LVL[timestamp] msg key=val key=val".
type termHandler struct {
	out   io.Writer
	color bool
	level slog.Level
	attrs []slog.Attr
}

func (h *termHandler) Enabled(_ context.Context, level slog.Level) bool { return level >= h.level }

func (h *termHandler) Handle(_ context.Context, r slog.Record) error {
	lvl := levelString(r.Level, h.color)
	line := fmt.Sprintf("%s[%s] %s", lvl, r.Time.Format(time.RFC3339), r.Message)
	for _, a := range h.attrs {
		line += fmt.Sprintf(" %s=%v", a.Key, a.Value.Any())
	}
	r.Attrs(func(a slog.Attr) bool {
		line += fmt.Sprintf(" %s=%v", a.Key, a.Value.Any())
		return true
	})
	_, err := fmt.Fprintln(h.out, line)
	return err
}

func (h *termHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	n := &termHandler{out: h.out, color: h.color, level: h.level}
	n.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return n
}

func (h *termHandler) WithGroup(_ string) slog.Handler { return h }

func levelString(l slog.Level, color bool) string {
	var s string
	switch {
	case l <= levelTrace:
		s = "TRACE"
	case l < slog.LevelInfo:
		s = "DEBUG"
	case l < slog.LevelWarn:
		s = "INFO "
	case l < slog.LevelError:
		s = "WARN "
	case l < levelCrit:
		s = "ERROR"
	default:
		s = "CRIT "
	}
	if !color {
		return s
	}
	code := "0"
	switch s {
	case "TRACE", "DEBUG":
		code = "36" // cyan
	case "WARN ":
		code = "33" // yellow
	case "ERROR", "CRIT ":
		code = "31" // red
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

// Trace/Debug/Info/Warn/Error/Crit are convenience wrappers over Root(),
// matching go-ethereum's package-level log.Info(...) call sites.
func Trace(msg string, ctx ...any) { root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { root.Error(msg, ctx...) }
func Crit(msg string, ctx ...any)  { root.Crit(msg, ctx...) }
