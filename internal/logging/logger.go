// Package logging provides structured logging for the membarrier tools
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with barrier-specific structured fields
type Logger struct {
	zlog   zerolog.Logger
	arch   string
	closer io.Closer
}

var (
	defaultLogger *Logger
	mu            sync.RWMutex
)

// LogLevel represents the available log levels
type LogLevel int

const (
	LevelDebug LogLevel = LogLevel(zerolog.DebugLevel)
	LevelInfo  LogLevel = LogLevel(zerolog.InfoLevel)
	LevelWarn  LogLevel = LogLevel(zerolog.WarnLevel)
	LevelError LogLevel = LogLevel(zerolog.ErrorLevel)
)

// Config holds logging configuration
type Config struct {
	Level   LogLevel
	Format  string // "json" or "text"
	Output  io.Writer
	Sync    bool // Write on the calling goroutine instead of a background one
	NoColor bool // Plain text output
}

// DefaultConfig logs info and above as text to stderr
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelInfo,
		Format: "text",
		Output: os.Stderr,
	}
}

// ParseFormat validates a -log-format value
func ParseFormat(s string) (string, error) {
	switch s {
	case "text", "json":
		return s, nil
	}
	return "", fmt.Errorf("unknown log format %q (want text or json)", s)
}

// asyncWriter hands log lines to a background goroutine so litmus
// workers never block on the terminal. Lines are dropped when the
// buffer is full.
type asyncWriter struct {
	out    io.Writer
	lines  chan []byte
	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

func newAsyncWriter(w io.Writer, depth int) *asyncWriter {
	aw := &asyncWriter{out: w, lines: make(chan []byte, depth), done: make(chan struct{})}
	go func() {
		defer close(aw.done)
		for line := range aw.lines {
			_, _ = aw.out.Write(line)
		}
	}()
	return aw
}

func (aw *asyncWriter) Write(p []byte) (int, error) {
	aw.mu.Lock()
	defer aw.mu.Unlock()
	if aw.closed {
		return 0, io.ErrClosedPipe
	}
	select {
	case aw.lines <- append([]byte(nil), p...):
	default:
	}
	return len(p), nil
}

// Close drains pending lines. It is safe to call more than once.
func (aw *asyncWriter) Close() error {
	aw.mu.Lock()
	if !aw.closed {
		aw.closed = true
		close(aw.lines)
	}
	aw.mu.Unlock()
	<-aw.done
	return nil
}

// NewLogger creates a new structured logger
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	l := &Logger{}
	out := config.Output
	if !config.Sync {
		aw := newAsyncWriter(out, 1000)
		out, l.closer = aw, aw
	}
	if config.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, NoColor: config.NoColor}
	}
	l.zlog = zerolog.New(out).With().Timestamp().Logger().Level(zerolog.Level(config.Level))
	return l
}

// Default returns the default logger, creating it if necessary
func Default() *Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewLogger(nil)
	}
	return defaultLogger
}

// SetDefault sets the default logger
func SetDefault(logger *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

func (l *Logger) derive(ctx zerolog.Context) *Logger {
	return &Logger{zlog: ctx.Logger(), arch: l.arch, closer: l.closer}
}

// WithArch returns a logger with architecture context
func (l *Logger) WithArch(arch string) *Logger {
	d := l.derive(l.zlog.With().Str("arch", arch))
	d.arch = arch
	return d
}

// WithBarrier returns a logger with (kind, type) context
func (l *Logger) WithBarrier(kind, typ string) *Logger {
	return l.derive(l.zlog.With().Str("kind", kind).Str("type", typ))
}

// WithRun returns a logger with litmus run context
func (l *Logger) WithRun(test string, worker int) *Logger {
	return l.derive(l.zlog.With().Str("test", test).Int("worker", worker))
}

// WithError returns a logger with error context
func (l *Logger) WithError(err error) *Logger {
	return l.derive(l.zlog.With().Err(err))
}

// Arch returns the architecture set by WithArch, if any
func (l *Logger) Arch() string {
	return l.arch
}

// Close flushes and stops the async writer, if the logger has one
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// emit attaches key/value pairs to e. A trailing key without a value
// is dropped; a non-string key is formatted with %v.
func emit(e *zerolog.Event, msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		e = e.Interface(key, kv[i+1])
	}
	e.Msg(msg)
}

func (l *Logger) Debug(msg string, kv ...any) { emit(l.zlog.Debug(), msg, kv) }
func (l *Logger) Info(msg string, kv ...any)  { emit(l.zlog.Info(), msg, kv) }
func (l *Logger) Warn(msg string, kv ...any)  { emit(l.zlog.Warn(), msg, kv) }
func (l *Logger) Error(msg string, kv ...any) { emit(l.zlog.Error(), msg, kv) }

// Info and Debug log through the default logger.
func Info(msg string, kv ...any)  { Default().Info(msg, kv...) }
func Debug(msg string, kv ...any) { Default().Debug(msg, kv...) }
