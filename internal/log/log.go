// Package log is a small leveled key=value logger over the standard library
// logger.
//
//	2025-01-01T00:00:00Z [LEVEL] msg key=value ...
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
	LevelFatal Level = "FATAL"
)

var severity = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
	LevelFatal: 4,
}

var (
	mu         sync.Mutex
	logger     *stdlog.Logger
	loggerOnce sync.Once
	minLevel   = LevelInfo

	// exit is called after a FATAL line is written.
	exit = os.Exit
)

func initLogger() {
	loggerOnce.Do(func() {
		logger = stdlog.New(os.Stderr, "", 0)
	})
}

// ParseLevel maps a config or flag value to a Level. Empty means INFO.
func ParseLevel(s string) (Level, error) {
	if s == "" {
		return LevelInfo, nil
	}
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	if l == "WARNING" {
		l = LevelWarn
	}
	if _, ok := severity[l]; !ok {
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

func SetLevel(l Level) {
	initLogger()
	mu.Lock()
	minLevel = l
	mu.Unlock()
}

// SetOutput redirects log lines, e.g. into a buffer in tests.
func SetOutput(w io.Writer) {
	initLogger()
	logger.SetOutput(w)
}

// SetExitFunc replaces the function Fatal calls after logging. It returns the
// previous one.
func SetExitFunc(f func(code int)) func(code int) {
	mu.Lock()
	defer mu.Unlock()
	prev := exit
	exit = f
	return prev
}

func Debug(msg string, kv ...any) {
	logWithLevel(LevelDebug, msg, kv...)
}

func Info(msg string, kv ...any) {
	logWithLevel(LevelInfo, msg, kv...)
}

func Warn(msg string, kv ...any) {
	logWithLevel(LevelWarn, msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	logWithLevel(LevelError, msg, append([]any{"err", err}, kv...)...)
}

// Fatal logs at FATAL and terminates the process with exit code 1.
func Fatal(msg string, err error, kv ...any) {
	logWithLevel(LevelFatal, msg, append([]any{"err", err}, kv...)...)
	mu.Lock()
	f := exit
	mu.Unlock()
	f(1)
}

func logWithLevel(level Level, msg string, kv ...any) {
	initLogger()
	if !enabled(level) {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().UTC().Format(time.RFC3339Nano))
	b.WriteString(" [")
	b.WriteString(string(level))
	b.WriteString("] ")
	b.WriteString(msg)
	writeKVs(&b, kv...)

	logger.Println(b.String())
}

func enabled(level Level) bool {
	mu.Lock()
	floor := minLevel
	mu.Unlock()
	return severity[level] >= severity[floor]
}

// writeKVs appends " key=value" pairs. A trailing key without value is
// dropped.
func writeKVs(b *strings.Builder, kv ...any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fmt.Fprintf(b, " %s=%v", key, kv[i+1])
	}
}
