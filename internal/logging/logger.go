// Package logging implements the hand-rolled leveled logger used
// throughout this repository: a thin wrapper over the standard log.Logger
// rather than a structured-logging dependency, matching the reference
// corpus's own convention for this concern.
package logging

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level, defaulting to Info for an
// unrecognized value.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Logger prints lines shaped "<RFC3339> <LEVEL> <component>: <message>",
// filtering anything below its configured level.
type Logger struct {
	component string
	level     Level
	out       *log.Logger
}

// New returns a Logger that writes to w, tagging every line with
// component and dropping messages below level.
func New(w io.Writer, component string, level Level) *Logger {
	return &Logger{component: component, level: level, out: log.New(w, "", 0)}
}

// With returns a copy of the logger scoped to a different component name,
// sharing the same underlying writer and level.
func (l *Logger) With(component string) *Logger {
	return &Logger{component: component, level: l.level, out: l.out}
}

func (l *Logger) Debug(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *Logger) Error(format string, args ...any) { l.log(LevelError, format, args...) }

func (l *Logger) log(level Level, format string, args ...any) {
	if level < l.level {
		return
	}
	l.out.Printf("%s %s %s: %s", time.Now().Format(time.RFC3339), level, l.component, fmt.Sprintf(format, args...))
}
