package loghandler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/fatih/color"
)

// errorKey is rendered in red so failures stand out in a long verbose log.
const errorKey = "error"

type palette struct {
	dim    *color.Color
	debug  *color.Color
	info   *color.Color
	warn   *color.Color
	err    *color.Color
	errVal *color.Color
}

func newPalette(useColor bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		dim:    mk(color.Faint),
		debug:  mk(color.FgCyan),
		info:   mk(color.FgGreen),
		warn:   mk(color.FgYellow),
		err:    mk(color.Bold, color.FgRed),
		errVal: mk(color.FgRed),
	}
}

// Options configures the Handler.
type Options struct {
	Level    slog.Level
	UseColor bool
}

// Handler is a compact, optionally colored slog.Handler for CLI output.
type Handler struct {
	w       io.Writer
	opts    Options
	colors  palette
	mu      *sync.Mutex
	attrs   []slog.Attr
	groups  []string
	bufPool *sync.Pool
}

// NewHandler creates a new Handler writing to w.
func NewHandler(w io.Writer, opts *Options) *Handler {
	h := &Handler{
		w:  w,
		mu: &sync.Mutex{},
		bufPool: &sync.Pool{
			New: func() any { return new(bytes.Buffer) },
		},
	}
	if opts != nil {
		h.opts = *opts
	}
	h.colors = newPalette(h.opts.UseColor)
	return h
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level
}

// Handle formats and writes the log record.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	buf := h.bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer h.bufPool.Put(buf)

	h.formatTime(buf, r.Time)
	buf.WriteByte(' ')
	h.formatLevel(buf, r.Level)
	if r.Message != "" {
		buf.WriteByte(' ')
		buf.WriteString(r.Message)
	}

	if len(h.attrs) > 0 || r.NumAttrs() > 0 {
		h.writeAttrs(buf, h.attrs)
		r.Attrs(func(a slog.Attr) bool {
			h.writeAttr(buf, a, h.groups)
			return true
		})
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := h.clone()
	for _, a := range attrs {
		h2.attrs = append(h2.attrs, h.resolveAttr(a, h.groups))
	}
	return h2
}

// WithGroup returns a new Handler with the given group name appended.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.clone()
	h2.groups = append(h2.groups, name)
	return h2
}

func (h *Handler) clone() *Handler {
	return &Handler{
		w:       h.w,
		opts:    h.opts,
		colors:  h.colors,
		mu:      h.mu,
		attrs:   append([]slog.Attr(nil), h.attrs...),
		groups:  append([]string(nil), h.groups...),
		bufPool: h.bufPool,
	}
}

func (h *Handler) formatTime(buf *bytes.Buffer, t time.Time) {
	var ts bytes.Buffer
	hour, minute, sec := t.Clock()
	writePad2(&ts, hour)
	ts.WriteByte(':')
	writePad2(&ts, minute)
	ts.WriteByte(':')
	writePad2(&ts, sec)
	_, _ = h.colors.dim.Fprint(buf, ts.String())
}

func (h *Handler) formatLevel(buf *bytes.Buffer, level slog.Level) {
	switch {
	case level >= slog.LevelError:
		_, _ = h.colors.err.Fprint(buf, "ERR")
	case level >= slog.LevelWarn:
		_, _ = h.colors.warn.Fprint(buf, "WRN")
	case level >= slog.LevelInfo:
		_, _ = h.colors.info.Fprint(buf, "INF")
	default:
		_, _ = h.colors.debug.Fprint(buf, "DBG")
	}
}

func (h *Handler) writeAttrs(buf *bytes.Buffer, attrs []slog.Attr) {
	for _, a := range attrs {
		h.writeResolvedAttr(buf, a)
	}
}

func (h *Handler) writeAttr(buf *bytes.Buffer, a slog.Attr, groups []string) {
	a = h.resolveAttr(a, groups)
	h.writeResolvedAttr(buf, a)
}

func (h *Handler) resolveAttr(a slog.Attr, groups []string) slog.Attr {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return a
	}
	if len(groups) > 0 {
		var b bytes.Buffer
		for _, g := range groups {
			b.WriteString(g)
			b.WriteByte('.')
		}
		b.WriteString(a.Key)
		a.Key = b.String()
	}
	return a
}

func (h *Handler) writeResolvedAttr(buf *bytes.Buffer, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	var kv bytes.Buffer
	kv.WriteString(a.Key)
	kv.WriteByte('=')
	h.writeValue(&kv, a.Value)

	buf.WriteByte(' ')
	c := h.colors.dim
	if a.Key == errorKey {
		c = h.colors.errVal
	}
	_, _ = c.Fprint(buf, kv.String())
}

func (h *Handler) writeValue(buf *bytes.Buffer, v slog.Value) {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if needsQuoting(s) {
			fmt.Fprintf(buf, "%q", s)
		} else {
			buf.WriteString(s)
		}
	case slog.KindGroup:
		attrs := v.Group()
		for i, a := range attrs {
			if i > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(a.Key)
			buf.WriteByte('=')
			h.writeValue(buf, a.Value)
		}
	default:
		s := fmt.Sprint(v.Any())
		if needsQuoting(s) {
			fmt.Fprintf(buf, "%q", s)
		} else {
			buf.WriteString(s)
		}
	}
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= ' ' || c == '"' || c == '\\' || c == '=' {
			return true
		}
	}
	return false
}

func writePad2(buf *bytes.Buffer, n int) {
	switch {
	case n < 10:
		buf.WriteByte('0')
		buf.WriteByte(byte('0' + n))
	case n < 100:
		buf.WriteByte(byte('0' + n/10))
		buf.WriteByte(byte('0' + n%10))
	default:
		fmt.Fprintf(buf, "%d", n)
	}
}

// Verify interface compliance at compile time.
var _ slog.Handler = (*Handler)(nil)
