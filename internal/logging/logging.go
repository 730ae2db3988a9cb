// Package logging points the standard logger at stdout and, optionally, a rotating file.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/unclebandit/emailcraft-backend/internal/config"
)

// Setup configures the standard logger. The returned closer flushes the file sink.
func Setup(cfg config.LogConfig) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if cfg.File == "" {
		log.SetOutput(os.Stdout)
		return nopCloser{}
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, file))
	return file
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
