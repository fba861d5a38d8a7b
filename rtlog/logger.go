package rtlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Logger writes dynamic log lines for one output path.
//
// The zero value is not usable; create loggers with New or NewWriter.
//
// Thread Safety: safe for concurrent use.
type Logger struct {
	mu       sync.Mutex
	path     string
	fallback io.Writer

	w       io.Writer
	closer  io.Closer
	open    bool
	written bool  // path was opened before; reopening appends
	err     error // Why the file could not be opened, if it could not
}

// Option configures a Logger.
type Option func(*Logger)

// WithFallback sets the writer used when the log file cannot be created.
// The default is os.Stderr.
func WithFallback(w io.Writer) Option {
	return func(l *Logger) { l.fallback = w }
}

// New returns a logger that opens path on first use.
func New(path string, opts ...Option) *Logger {
	l := &Logger{path: path, fallback: os.Stderr}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewWriter returns a logger that is already open on w. Close does not
// close w.
func NewWriter(w io.Writer) *Logger {
	return &Logger{w: w, fallback: w, open: true}
}

// Path returns the file the logger writes to.
func (l *Logger) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// SetPath changes the output file. An open file is closed first, and the
// next Init or Log opens the new path.
func (l *Logger) SetPath(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.closeLocked()
	if path != l.path {
		l.written = false
	}
	l.path = path
	return err
}

// Init opens the log file. The first open of a path truncates it; opening
// it again after Close appends. It is a no-op when the logger is already
// open. On failure the logger falls back to its fallback writer and
// Err reports the cause.
func (l *Logger) Init() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.initLocked()
}

func (l *Logger) initLocked() {
	if l.open {
		return
	}
	l.err = nil
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if l.written {
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	f, err := os.OpenFile(l.path, flag, 0o666)
	if err != nil {
		l.err = errors.Wrapf(err, "open dynamic log %s", l.path)
		l.w, l.closer = l.fallback, nil
	} else {
		l.w, l.closer = f, f
		l.written = true
	}
	l.open = true
	register(l)
}

// Log increments *counter and writes "<id> '<opcode>' counter: <n>" where n
// is the value after the increment. It opens the log if needed.
func (l *Logger) Log(opcode string, counter *int64, id uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.initLocked()

	n := atomic.AddInt64(counter, 1)
	fmt.Fprintf(l.w, LineFormat, id, opcode, n)
	if f, ok := l.w.(interface{ Flush() error }); ok {
		_ = f.Flush()
	}
}

// Err returns the error that forced the fallback writer, or nil.
func (l *Logger) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Close closes the log file. The fallback writer is never closed. Close is
// idempotent; a later Init or Log reopens the file and appends to it.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeLocked()
}

func (l *Logger) closeLocked() error {
	if !l.open || l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.w, l.closer = nil, nil
	l.open = false
	return errors.Wrapf(err, "close dynamic log %s", l.path)
}
