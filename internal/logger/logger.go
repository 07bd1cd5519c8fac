// Package logger holds the process-wide logrus logger. Output goes to stdout and,
// when a file is configured, to a size-rotated log file.
package logger

import (
	"io"
	"os"

	"github.com/Domenick1991/cafebooking/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is usable before Init; it then writes text to stderr at info level.
var Log = logrus.New()

// Init configures Log from cfg. The returned closer flushes the rotating file.
func Init(cfg config.LogConfig) (io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	Log.SetLevel(level)

	if cfg.Format == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	}

	if cfg.File == "" {
		Log.SetOutput(os.Stdout)
		return io.NopCloser(nil), nil
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	Log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	return rotator, nil
}
