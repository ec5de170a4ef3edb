// Package logger provides leveled logging for docground.
// Messages go to stderr by default; stdout belongs to the MCP stdio transport.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is a logging threshold
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

var (
	mu     sync.RWMutex
	level            = LevelInfo
	output io.Writer = os.Stderr
)

// ParseLevel converts a level name (debug, info, warn, error) to a Level
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// SetLevel sets the minimum level that is written.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// GetLevel returns the current level.
func GetLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

// SetOutput sets the output writer.
// Defaults to os.Stderr. Useful for testing.
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
	fmt.Fprintf(output, "[%s] "+format+"\n", append([]any{l}, args...)...)
}

// Debug prints a debug message.
func Debug(format string, args ...any) {
	logf(LevelDebug, format, args...)
}

// Info prints an informational message.
func Info(format string, args ...any) {
	logf(LevelInfo, format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	logf(LevelWarn, format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	logf(LevelError, format, args...)
}

// Timer measures one operation and logs its outcome with the elapsed time.
type Timer struct {
	op    string
	start time.Time
}

// Start begins timing op.
func Start(op string) *Timer {
	return &Timer{op: op, start: time.Now()}
}

// Elapsed returns the time since Start.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// End logs successful completion at debug level. fields is appended verbatim.
func (t *Timer) End(fields string) {
	Debug("%s completed duration_ms=%d %s", t.op, t.Elapsed().Milliseconds(), fields)
}

// Fail logs a failed operation at warn level.
func (t *Timer) Fail(err error, fields string) {
	Warn("%s failed duration_ms=%d error=%q %s", t.op, t.Elapsed().Milliseconds(), err, fields)
}
