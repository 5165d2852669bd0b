// Package logging wraps charmbracelet/log into the small set of
// package-level helpers the rest of the module calls, the way the
// teacher's common/log package does.
package logging

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
)

var logger *log.Logger

// Init sets up the package logger for appName. Pass levelName as one
// of "debug", "info", "warn", "error"; anything else falls back to
// info.
func Init(appName string, levelName string) {
	logger = log.New(os.Stderr)
	logger.SetPrefix(appName)
	logger.SetReportTimestamp(true)
	logger.SetTimeFormat(time.DateTime)
	logger.SetLevel(parseLevel(levelName))
}

func parseLevel(levelName string) log.Level {
	switch levelName {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func ensure() {
	if logger == nil {
		Init("riichicore", "info")
	}
}

func Debug(format string, args ...any) {
	ensure()
	if len(args) == 0 {
		logger.Debug(format)
		return
	}
	logger.Debugf(format, args...)
}

func Info(format string, args ...any) {
	ensure()
	if len(args) == 0 {
		logger.Info(format)
		return
	}
	logger.Infof(format, args...)
}

func Warn(format string, args ...any) {
	ensure()
	if len(args) == 0 {
		logger.Warn(format)
		return
	}
	logger.Warnf(format, args...)
}

func Error(format string, args ...any) {
	ensure()
	if len(args) == 0 {
		logger.Error(format)
		return
	}
	logger.Errorf(format, args...)
}

func Fatal(format string, args ...any) {
	ensure()
	if len(args) == 0 {
		logger.Fatal(format)
		return
	}
	logger.Fatalf(format, args...)
}
