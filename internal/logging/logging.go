package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// staleAfter is how old a weekday file has to be before it is considered last week's.
const staleAfter = 24 * time.Hour

// FileName returns the name of the log file used on the day t falls in: Mon.log, Tue.log, ...
func FileName(t time.Time) string {
	return t.Format("Mon") + ".log"
}

// New builds a logger writing human readable lines to stderr and JSON lines to the
// weekday log file in dir. The returned function flushes the logger and closes the file.
func New(dir string, verbose bool, now time.Time) (*zap.Logger, func() error, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("unable to create log directory %v: %w", dir, err)
	}

	f, err := open(filepath.Join(dir, FileName(now)), now)
	if err != nil {
		return nil, nil, err
	}

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		level.SetLevel(zapcore.DebugLevel)
	}

	consoleConfig := zap.NewDevelopmentEncoderConfig()
	consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleConfig.EncodeTime = zapcore.TimeEncoderOfLayout("02-Jan-06 15:04:05")

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleConfig), zapcore.Lock(os.Stderr), level),
		zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(f), level),
	)
	logger := zap.New(core)

	closer := func() error {
		_ = logger.Sync()
		return f.Close()
	}

	return logger, closer, nil
}

// open appends to the weekday file, unless it was last written more than a day ago,
// in which case it belongs to a previous week and is truncated.
func open(path string, now time.Time) (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if info, err := os.Stat(path); err == nil && now.Sub(info.ModTime()) > staleAfter {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("unable to open log file %v: %w", path, err)
	}

	return f, nil
}
