package main

import (
	"io"
	"log"
	"strings"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var levelNames = [...]string{
	LogLevelDebug: "debug",
	LogLevelInfo:  "info",
	LogLevelWarn:  "warn",
	LogLevelError: "error",
}

// String returns the lowercase level name.
func (l LogLevel) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "unknown"
	}
	return levelNames[l]
}

// parseLogLevel maps a level name, in any case, to a LogLevel. "warning" is
// accepted for warn; anything unrecognized means info.
func parseLogLevel(level string) LogLevel {
	name := strings.ToLower(level)
	if name == "warning" {
		return LogLevelWarn
	}
	for l, n := range levelNames {
		if n == name {
			return LogLevel(l)
		}
	}
	return LogLevelInfo
}

// Logger provides leveled logging on top of the standard log package.
type Logger struct {
	level LogLevel
	out   *log.Logger
}

// NewLogger creates a logger writing to the standard logger.
func NewLogger(level string) *Logger {
	return &Logger{
		level: parseLogLevel(level),
		out:   log.Default(),
	}
}

// NewLoggerTo creates a logger writing to w with the standard flags.
func NewLoggerTo(w io.Writer, level string) *Logger {
	return &Logger{
		level: parseLogLevel(level),
		out:   log.New(w, "", log.LstdFlags),
	}
}

// logf prints when level is at or above the configured threshold. The tag
// is the upper-cased level name in brackets.
func (l *Logger) logf(level LogLevel, format string, v ...any) {
	if level < l.level {
		return
	}
	l.out.Printf("["+strings.ToUpper(level.String())+"] "+format, v...)
}

// Debugf logs a debug message
func (l *Logger) Debugf(format string, v ...any) { l.logf(LogLevelDebug, format, v...) }

// Infof logs an info message
func (l *Logger) Infof(format string, v ...any) { l.logf(LogLevelInfo, format, v...) }

// Warnf logs a warning message
func (l *Logger) Warnf(format string, v ...any) { l.logf(LogLevelWarn, format, v...) }

// Errorf logs an error message
func (l *Logger) Errorf(format string, v ...any) { l.logf(LogLevelError, format, v...) }

// Fatalf logs an error message and exits
func (l *Logger) Fatalf(format string, v ...any) {
	l.out.Fatalf("[FATAL] "+format, v...)
}
