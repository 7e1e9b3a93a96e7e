// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes where and how verbosely to log
type Config struct {
	VerbosityLevel int
	Format         string // "text" or "json"
	FilePath       string // empty disables file output
	MaxSize        int    // megabytes
	MaxBackups     int
	MaxAge         int // days
	Compress       bool
}

// LevelFor maps a CLI verbosity level to a logrus level.
// Levels 1 and 3 enable debug logs; raw switch output is logged at info.
func LevelFor(verbosity int) logrus.Level {
	if verbosity == 1 || verbosity == 3 {
		return logrus.DebugLevel
	}
	return logrus.InfoLevel
}

// Init configures the standard logrus logger
func Init(cfg Config) error {
	return Configure(logrus.StandardLogger(), cfg, os.Stderr)
}

// Configure applies cfg to log, writing console output to console
func Configure(log *logrus.Logger, cfg Config, console io.Writer) error {
	log.SetLevel(LevelFor(cfg.VerbosityLevel))

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat:   "2006-01-02 15:04:05",
			DisableHTMLEscape: true,
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	writers := []io.Writer{console}
	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return err
		}
		maxSize := cfg.MaxSize
		if maxSize <= 0 {
			maxSize = 10
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    maxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
	}
	log.SetOutput(io.MultiWriter(writers...))
	return nil
}
