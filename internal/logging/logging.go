package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config is the subset of application config the logger needs
type Config interface {
	GetEnv() string
	GetLogLevel() string
	GetLogFile() string
}

// New builds the process logger and installs it as the zerolog global.
// DEV gets a human readable console writer on stderr; other environments log JSON.
// When a log file is configured, output is also written to a size-rotated file.
func New(cfg Config) (zerolog.Logger, io.Closer) {
	var console io.Writer = os.Stderr
	if cfg.GetEnv() == "DEV" {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	var closer io.Closer = nopCloser{}
	writer := console
	if path := cfg.GetLogFile(); path != "" {
		_ = os.MkdirAll(filepath.Dir(path), 0o755)
		rotating := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}
		writer = zerolog.MultiLevelWriter(console, rotating)
		closer = rotating
	}

	logger := zerolog.New(writer).Level(ParseLevel(cfg.GetLogLevel())).With().Timestamp().Logger()
	log.Logger = logger
	return logger, closer
}

// ParseLevel maps a config string to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
