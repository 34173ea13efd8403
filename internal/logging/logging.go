// Package logging is the leveled logger shared by the overreaction commands.
// A *Logger satisfies kinetics.Logger, so it can be handed straight to a
// Simulation, MatchManager or SnapshotPublisher.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level represents the logging level
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
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l Level) tag() string {
	return "[" + strings.ToUpper(l.String()) + "] "
}

// ParseLevel parses a level name case-insensitively. Unknown names mean info.
func ParseLevel(level string) Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// Logger provides leveled logging on top of the standard log package.
type Logger struct {
	level Level
	out   *log.Logger
}

// New creates a logger writing to stderr with the standard log flags.
func New(level string) *Logger {
	return NewWithWriter(level, os.Stderr)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(level string, w io.Writer) *Logger {
	return &Logger{
		level: ParseLevel(level),
		out:   log.New(w, "", log.LstdFlags),
	}
}

// Level returns the minimum level that is written.
func (l *Logger) Level() Level {
	return l.level
}

func (l *Logger) logf(level Level, format string, v ...any) {
	if level < l.level {
		return
	}
	l.out.Print(level.tag() + fmt.Sprintf(format, v...))
}

func (l *Logger) Debugf(format string, v ...any) { l.logf(LevelDebug, format, v...) }
func (l *Logger) Infof(format string, v ...any)  { l.logf(LevelInfo, format, v...) }
func (l *Logger) Warnf(format string, v ...any)  { l.logf(LevelWarn, format, v...) }
func (l *Logger) Errorf(format string, v ...any) { l.logf(LevelError, format, v...) }

// Fatalf logs regardless of level and exits.
func (l *Logger) Fatalf(format string, v ...any) {
	l.out.Fatalf("[FATAL] "+format, v...)
}
