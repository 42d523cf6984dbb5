// Package logging provides the colored console logger shared by every
// sf-fields component.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Logger writes timestamped, optionally colored lines.
//
// All methods are safe to call on a nil *Logger, which discards output.
type Logger struct {
	mu        sync.Mutex
	verbose   bool
	useColor  bool
	traceHTTP bool
	writer    io.Writer
}

// NewLogger creates a logger writing to stdout
func NewLogger(verbose, useColor, traceHTTP bool) *Logger {
	return NewLoggerWithWriter(verbose, useColor, traceHTTP, os.Stdout)
}

// NewLoggerWithWriter creates a logger writing to w
func NewLoggerWithWriter(verbose, useColor, traceHTTP bool, w io.Writer) *Logger {
	return &Logger{
		verbose:   verbose,
		useColor:  useColor,
		traceHTTP: traceHTTP,
		writer:    w,
	}
}

// SetVerbose toggles verbose output
func (l *Logger) SetVerbose(verbose bool) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = verbose
}

// SetWriter redirects output to w
func (l *Logger) SetWriter(w io.Writer) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// Verbose reports whether verbose output is enabled
func (l *Logger) Verbose() bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.verbose
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(colorBlue, "INFO", format, args...)
}

// InfoVerbose logs an informational message only in verbose mode
func (l *Logger) InfoVerbose(format string, args ...interface{}) {
	if !l.Verbose() {
		return
	}
	l.Info(format, args...)
}

// Success logs a success message
func (l *Logger) Success(format string, args ...interface{}) {
	l.log(colorGreen, "OK", format, args...)
}

// Warning logs a warning
func (l *Logger) Warning(format string, args ...interface{}) {
	l.log(colorYellow, "WARN", format, args...)
}

// WarningVerbose logs a warning only in verbose mode
func (l *Logger) WarningVerbose(format string, args ...interface{}) {
	if !l.Verbose() {
		return
	}
	l.Warning(format, args...)
}

// Error logs an error
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(colorRed, "ERROR", format, args...)
}

// Debug logs a message only in verbose mode
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.Verbose() {
		return
	}
	l.log(colorGray, "DEBUG", format, args...)
}

// Request traces an outgoing REST call when HTTP tracing is enabled
func (l *Logger) Request(method, url string) {
	if l == nil || !l.traceHTTP {
		return
	}
	l.log(colorCyan, "→", "%s %s", method, url)
}

// Response traces the outcome of a REST call when HTTP tracing is enabled
func (l *Logger) Response(method, url string, status int, elapsed time.Duration) {
	if l == nil || !l.traceHTTP {
		return
	}
	color := colorCyan
	if status >= 400 {
		color = colorRed
	}
	l.log(color, "←", "%s %s %d (%s)", method, url, status, elapsed.Round(time.Millisecond))
}

func (l *Logger) log(color, level, format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writer == nil {
		return
	}

	timestamp := time.Now().Format("15:04:05")
	msg := fmt.Sprintf(format, args...)
	if l.useColor {
		fmt.Fprintf(l.writer, "%s[%s]%s %s%-5s%s %s\n", colorGray, timestamp, colorReset, color, level, colorReset, msg)
		return
	}
	fmt.Fprintf(l.writer, "[%s] %-5s %s\n", timestamp, level, msg)
}
