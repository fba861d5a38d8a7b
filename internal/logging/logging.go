// Package logging builds the zap loggers used by the irgraph commands.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	zaplogfmt "github.com/sykesm/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Encoding selects how log records are written.
type Encoding string

const (
	CONSOLE Encoding = "console"
	JSON    Encoding = "json"
	LOGFMT  Encoding = "logfmt"
)

// Config is used to build a logger.
type Config struct {
	// Format is one of "console", "json" or "logfmt". Empty means console.
	Format string

	// Level is the minimum enabled level ("debug", "info", "warn", "error").
	// Empty means info.
	Level string

	// Writer is the sink for encoded log records.
	//
	// If a Writer is not provided, os.Stderr will be used as the log sink.
	Writer io.Writer
}

// New creates a logger from c.
func New(c Config) (*zap.Logger, error) {
	enc, err := ParseEncoding(c.Format)
	if err != nil {
		return nil, err
	}
	level, err := ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	w := c.Writer
	if w == nil {
		w = os.Stderr
	}

	core := zapcore.NewCore(newEncoder(enc), zapcore.AddSync(w), level)
	return NewZapLogger(core), nil
}

// NewZapLogger creates a zap logger around core with caller annotation and
// stack traces on errors.
func NewZapLogger(core zapcore.Core, options ...zap.Option) *zap.Logger {
	return zap.New(
		core,
		append([]zap.Option{
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
		}, options...)...,
	)
}

// ParseEncoding validates a format name.
func ParseEncoding(format string) (Encoding, error) {
	switch e := Encoding(strings.ToLower(format)); e {
	case "":
		return CONSOLE, nil
	case CONSOLE, JSON, LOGFMT:
		return e, nil
	}
	return "", errors.Errorf("unknown log format %q (want console, json or logfmt)", format)
}

// ParseLevel validates a level name.
func ParseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return l, errors.Wrapf(err, "invalid log level %q", level)
	}
	return l, nil
}

func newEncoder(e Encoding) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.NameKey = "name"
	switch e {
	case JSON:
		return zapcore.NewJSONEncoder(cfg)
	case LOGFMT:
		return zaplogfmt.NewEncoder(cfg)
	}
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}
