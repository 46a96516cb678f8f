// Package logging builds the process zap logger. The TUI owns stdout, so
// logs go to a file unless stderr is asked for explicitly.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	Stderr = "-"
	Off    = "off"
)

type Options struct {
	Level string
	File  string
}

// New returns a production logger, or a development one at debug level.
func New(opts Options) (*zap.Logger, error) {
	file := strings.TrimSpace(opts.File)
	if strings.EqualFold(file, Off) {
		return zap.NewNop(), nil
	}
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	logConfig := zap.NewProductionConfig()
	if level == zapcore.DebugLevel {
		logConfig = zap.NewDevelopmentConfig()
	}
	logConfig.Level = zap.NewAtomicLevelAt(level)
	logConfig.EncoderConfig.TimeKey = "timestamp"
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	output := "stderr"
	if file != "" && file != Stderr {
		output = file
	}
	logConfig.OutputPaths = []string{output}
	logConfig.ErrorOutputPaths = []string{output}

	logger, err := logConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Named("incident-demo"), nil
}

func ParseLevel(raw string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", raw)
	}
}
