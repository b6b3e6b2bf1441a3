// Package logging provides the terminal slog handler used by the shaderd
// commands.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	debugStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	infoStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F2C14E"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	timeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// Options configure a Handler.
type Options struct {
	Level slog.Leveler
	// Plain disables styling, e.g. when output is not a terminal.
	Plain bool
	// NoTime drops the timestamp column.
	NoTime bool
}

// Handler writes one line per record:
//
//	15:04:05 INFO  message key=value group.key=value
type Handler struct {
	opts   Options
	mu     *sync.Mutex
	w      io.Writer
	prefix string // pre-rendered attrs from WithAttrs
	groups []string
}

// NewHandler returns a Handler writing to w.
func NewHandler(w io.Writer, opts Options) *Handler {
	if opts.Level == nil {
		opts.Level = slog.LevelInfo
	}
	return &Handler{opts: opts, mu: &sync.Mutex{}, w: w}
}

// New returns a logger backed by a Handler.
func New(w io.Writer, opts Options) *slog.Logger {
	return slog.New(NewHandler(w, opts))
}

// ParseLevel parses debug, info, warn or error (case-insensitive).
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

// Handle implements slog.Handler.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	if !h.opts.NoTime && !r.Time.IsZero() {
		sb.WriteString(h.style(timeStyle, r.Time.Format(time.TimeOnly)))
		sb.WriteByte(' ')
	}
	sb.WriteString(h.level(r.Level))
	sb.WriteByte(' ')
	sb.WriteString(r.Message)
	sb.WriteString(h.prefix)
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&sb, strings.Join(h.groups, "."), a)
		return true
	})
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, sb.String())
	return err
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var sb strings.Builder
	sb.WriteString(h.prefix)
	for _, a := range attrs {
		h.appendAttr(&sb, strings.Join(h.groups, "."), a)
	}
	h2 := *h
	h2.prefix = sb.String()
	return &h2
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = append(append([]string(nil), h.groups...), name)
	return &h2
}

func (h *Handler) appendAttr(sb *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			h.appendAttr(sb, key, ga)
		}
		return
	}
	sb.WriteByte(' ')
	sb.WriteString(h.style(keyStyle, key+"="))
	sb.WriteString(quote(a.Value.String()))
}

func (h *Handler) level(l slog.Level) string {
	var style lipgloss.Style
	switch {
	case l >= slog.LevelError:
		style = errorStyle
	case l >= slog.LevelWarn:
		style = warnStyle
	case l >= slog.LevelInfo:
		style = infoStyle
	default:
		style = debugStyle
	}
	return h.style(style, fmt.Sprintf("%-5s", l.String()))
}

func (h *Handler) style(s lipgloss.Style, text string) string {
	if h.opts.Plain {
		return text
	}
	return s.Render(text)
}

// quote quotes values containing spaces, quotes or newlines.
func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
