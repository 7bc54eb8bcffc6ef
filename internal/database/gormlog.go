package database

import (
	"fmt"
	"log/slog"
	"time"

	gormlogger "gorm.io/gorm/logger"
)

// slogWriter adapts slog to gorm's Printf-style writer.
type slogWriter struct {
	logger *slog.Logger
}

func (w slogWriter) Printf(format string, args ...any) {
	w.logger.Info(fmt.Sprintf(format, args...), "source", "gorm")
}

// NewGormLogger returns a gorm logger writing to logger. With echo set every
// statement is logged; otherwise gorm stays silent and errors surface through
// the returned error values only.
func NewGormLogger(logger *slog.Logger, echo bool) gormlogger.Interface {
	if logger == nil {
		logger = slog.Default()
	}

	level := gormlogger.Silent
	if echo {
		level = gormlogger.Info
	}

	return gormlogger.New(slogWriter{logger: logger}, gormlogger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
