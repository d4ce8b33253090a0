package logging

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Logger is a deliberately small, framework-agnostic logging interface.
type Logger interface {
	// Debug logs a debug-level message.
	Debug(msg string, fields ...Field)

	// Info logs an informational message.
	Info(msg string, fields ...Field)

	// Warn logs a warning.
	Warn(msg string, fields ...Field)

	// Error logs an error.
	Error(msg string, fields ...Field)

	// With returns a child logger with persistent fields.
	With(fields ...Field) Logger
}

// Field is a simple key/value pair for structured logging fields.
type Field struct {
	Key   string
	Value any
}

// Format selects how StdoutLogger renders a line.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned by ParseFormat for anything but text or json.
var ErrUnknownFormat = errors.New("unknown log format")

// ParseFormat maps "text" or "json", in any case, to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w %q (want text or json)", ErrUnknownFormat, s)
	}
}

// Level orders log severities; messages below the logger's level are dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

// ParseLevel maps a level name to a Level. Unknown names fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// StdoutLogger is a tiny structured logger. It implements Logger and prints
// either human-readable text lines or JSON lines.
type StdoutLogger struct {
	component string
	format    Format
	level     Level
	fields    []Field

	mu  *sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewStdoutLogger creates a text logger writing to stdout at info level.
// component is optional and is printed with every line.
func NewStdoutLogger(component string) *StdoutLogger {
	return &StdoutLogger{
		component: component,
		format:    FormatText,
		level:     LevelInfo,
		mu:        &sync.Mutex{},
		out:       os.Stdout,
		now:       time.Now,
	}
}

// WithFormat returns a copy of the logger using the given output format.
func (s *StdoutLogger) WithFormat(f Format) *StdoutLogger {
	child := s.clone()
	if f == FormatJSON {
		child.format = FormatJSON
	} else {
		child.format = FormatText
	}
	return child
}

// WithLevel returns a copy of the logger that drops messages below lvl.
func (s *StdoutLogger) WithLevel(lvl Level) *StdoutLogger {
	child := s.clone()
	child.level = lvl
	return child
}

// WithOutput returns a copy of the logger writing to w.
func (s *StdoutLogger) WithOutput(w io.Writer) *StdoutLogger {
	child := s.clone()
	child.out = w
	child.mu = &sync.Mutex{}
	return child
}

func (s *StdoutLogger) clone() *StdoutLogger {
	child := *s
	child.fields = append([]Field(nil), s.fields...)
	return &child
}

func (s *StdoutLogger) log(level Level, msg string, fields ...Field) {
	if level < s.level {
		return
	}

	all := make([]Field, 0, len(s.fields)+len(fields))
	all = append(all, s.fields...)
	all = append(all, fields...)

	var line string
	if s.format == FormatJSON {
		line = s.jsonLine(level, msg, all)
	} else {
		line = s.textLine(level, msg, all)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, line)
}

func (s *StdoutLogger) jsonLine(level Level, msg string, fields []Field) string {
	type outEntry struct {
		Level     string         `json:"level"`
		Msg       string         `json:"msg"`
		Component string         `json:"component,omitempty"`
		Time      string         `json:"time"`
		Fields    map[string]any `json:"fields,omitempty"`
	}
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[f.Key] = renderValue(f.Value)
	}
	entry := outEntry{
		Level:     level.String(),
		Msg:       msg,
		Component: s.component,
		Time:      s.now().UTC().Format(time.RFC3339),
		Fields:    m,
	}
	enc, err := json.Marshal(entry)
	if err != nil {
		// Fallback to plain formatting if JSON marshal fails
		return s.textLine(level, msg, fields)
	}
	return string(enc)
}

func (s *StdoutLogger) textLine(level Level, msg string, fields []Field) string {
	var b strings.Builder
	b.WriteString(s.now().Format("15:04:05"))
	b.WriteByte(' ')
	b.WriteString(strings.ToUpper(level.String()))
	if s.component != "" {
		b.WriteString(" [")
		b.WriteString(s.component)
		b.WriteByte(']')
	}
	b.WriteByte(' ')
	b.WriteString(msg)

	// keep persistent fields first, then call-site fields sorted for stable output
	persistent := len(s.fields)
	if persistent > len(fields) {
		persistent = len(fields)
	}
	rest := append([]Field(nil), fields[persistent:]...)
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].Key < rest[j].Key })

	for _, f := range append(fields[:persistent:persistent], rest...) {
		b.WriteByte(' ')
		b.WriteString(f.Key)
		b.WriteByte('=')
		v := fmt.Sprint(renderValue(f.Value))
		if strings.ContainsAny(v, " \t\"=") {
			v = fmt.Sprintf("%q", v)
		}
		b.WriteString(v)
	}
	return b.String()
}

// renderValue makes errors print as their message in both formats.
func renderValue(v any) any {
	if err, ok := v.(error); ok && err != nil {
		return err.Error()
	}
	return v
}

func (s *StdoutLogger) Debug(msg string, fields ...Field) {
	s.log(LevelDebug, msg, fields...)
}

func (s *StdoutLogger) Info(msg string, fields ...Field) {
	s.log(LevelInfo, msg, fields...)
}

func (s *StdoutLogger) Warn(msg string, fields ...Field) {
	s.log(LevelWarn, msg, fields...)
}

func (s *StdoutLogger) Error(msg string, fields ...Field) {
	s.log(LevelError, msg, fields...)
}

// With returns a child logger carrying fields on every line. A "component"
// field replaces the component name instead of being repeated as a field.
func (s *StdoutLogger) With(fields ...Field) Logger {
	child := s.clone()
	for _, f := range fields {
		if f.Key == "component" {
			if str, ok := f.Value.(string); ok {
				child.component = str
				continue
			}
		}
		child.fields = append(child.fields, f)
	}
	return child
}

// Nop discards everything.
type Nop struct{}

func (Nop) Debug(string, ...Field) {}
func (Nop) Info(string, ...Field)  {}
func (Nop) Warn(string, ...Field)  {}
func (Nop) Error(string, ...Field) {}
func (n Nop) With(...Field) Logger { return n }
