// Package logger writes rentsync's diagnostic output to stderr.
//
// Logging is off by default so the TUI keeps the terminal. --verbose turns
// on everything; --log-level picks a threshold.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is a log threshold. Messages below the current level are dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelOff
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelOff:   "off",
}

func (l Level) String() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel accepts debug, info, warn (or warning) and off.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "off", "none", "":
		return LevelOff, nil
	}
	return LevelOff, fmt.Errorf("unknown log level %q (want debug, info, warn or off)", s)
}

var (
	mu     sync.RWMutex
	level            = LevelOff
	output io.Writer = os.Stderr
	now              = time.Now
)

// SetLevel sets the threshold.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// CurrentLevel returns the threshold.
func CurrentLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

// SetVerbose switches between everything and nothing.
func SetVerbose(v bool) {
	if v {
		SetLevel(LevelDebug)
		return
	}
	SetLevel(LevelOff)
}

// IsVerbose reports whether debug messages are written.
func IsVerbose() bool {
	return CurrentLevel() == LevelDebug
}

// SetOutput redirects log output. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func logf(l Level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if l < level {
		return
	}
	fmt.Fprintf(output, "%s %-5s %s\n", now().Format("15:04:05.000"), strings.ToUpper(l.String()), fmt.Sprintf(format, args...))
}

// Debug logs rule traces and per-item decisions.
func Debug(format string, args ...any) { logf(LevelDebug, format, args...) }

// Info logs run summaries and state changes.
func Info(format string, args ...any) { logf(LevelInfo, format, args...) }

// Warn logs failures that do not stop the current operation.
func Warn(format string, args ...any) { logf(LevelWarn, format, args...) }

// Section marks the start of a unit of work, such as one connection's sync.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if LevelInfo < level {
		return
	}
	fmt.Fprintf(output, "\n--- %s ---\n", name)
}
