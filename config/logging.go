package config

import (
	"os"
	"strings"

	"github.com/natefinch/lumberjack"
	"github.com/op/go-logging"
)

var (
	stdoutLogFormat = logging.MustStringFormatter(`%{color:reset}%{color}%{time:15:04:05.000} [%{level}] [%{module}] %{message}`)
	fileLogFormat   = logging.MustStringFormatter(`%{time:2006-01-02T15:04:05} [%{level}] [%{module}] %{message}`)
)

// SetupLogging installs the stdout backend and, when cfg.LogFile is set, a
// rotating file backend. Every package logger follows cfg.LogLevel.
func SetupLogging(cfg Config) {
	stdout := logging.NewBackendFormatter(logging.NewLogBackend(os.Stdout, "", 0), stdoutLogFormat)

	if cfg.LogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     30, // days
		}
		file := logging.NewBackendFormatter(logging.NewLogBackend(rotator, "", 0), fileLogFormat)
		logging.SetBackend(stdout, file)
	} else {
		logging.SetBackend(stdout)
	}

	logging.SetLevel(LogLevel(cfg.LogLevel), "")
}

// LogLevel maps a config level name to a go-logging level. Unknown names
// map to INFO.
func LogLevel(name string) logging.Level {
	switch strings.ToLower(name) {
	case "debug":
		return logging.DEBUG
	case "warn":
		return logging.WARNING
	case "error":
		return logging.ERROR
	default:
		return logging.INFO
	}
}
