package logging

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	WithCaller bool
	Level      string
	LogFormat  string
	LogFile    string
	// Quiet keeps stderr free while a full screen program owns the terminal.
	Quiet bool
}

func InitLogger(config *Config) error {
	level := zerolog.InfoLevel
	if config.Level != "" {
		l, err := zerolog.ParseLevel(config.Level)
		if err != nil {
			return errors.Wrapf(err, "invalid log level %q", config.Level)
		}
		level = l
	}

	var writers []io.Writer
	if !config.Quiet {
		if config.LogFormat == "json" {
			writers = append(writers, os.Stderr)
		} else {
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr})
		}
	}

	if config.LogFile != "" {
		writers = append(writers, zerolog.ConsoleWriter{
			NoColor: true,
			Out: &lumberjack.Logger{
				Filename:   config.LogFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
			},
		})
	}

	var out io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}

	logger := zerolog.New(out).With().Timestamp()
	if config.WithCaller {
		logger = logger.Caller()
	}
	log.Logger = logger.Logger()
	zerolog.SetGlobalLevel(level)

	return nil
}
