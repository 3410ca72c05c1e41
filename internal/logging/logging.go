package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// Log formats accepted by New.
const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New returns a logger writing to stderr. Verbose enables debug level.
func New(verbose bool, format string) (*zap.Logger, error) {
	return newLogger(os.Stderr, verbose, format, term.IsTerminal(int(os.Stderr.Fd())))
}

// NewNull returns a logger that discards everything.
func NewNull() *zap.Logger {
	return zap.NewNop()
}

func newLogger(w io.Writer, verbose bool, format string, isTerminal bool) (*zap.Logger, error) {
	encoder, err := newEncoder(format, isTerminal)
	if err != nil {
		return nil, err
	}

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func newEncoder(format string, isTerminal bool) (zapcore.Encoder, error) {
	switch strings.ToLower(format) {
	case "", FormatAuto:
		if isTerminal {
			return consoleEncoder(), nil
		}
		return jsonEncoder(), nil
	case FormatConsole:
		return consoleEncoder(), nil
	case FormatJSON:
		return jsonEncoder(), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want auto, console or json)", format)
	}
}

func consoleEncoder() zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	return zapcore.NewConsoleEncoder(cfg)
}

func jsonEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(cfg)
}
