package config

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"careerhub-backend/errors"
	"careerhub-backend/logger"
)

// SlowQuery is the threshold above which statements are logged as warnings.
const SlowQuery = 200 * time.Millisecond

// dbLogger sends gorm's output through zap with the request fields of the
// statement's context.
type dbLogger struct {
	log   *zap.SugaredLogger
	level gormlogger.LogLevel
	slow  time.Duration
}

func newDBLogger(l *zap.SugaredLogger) *dbLogger {
	return &dbLogger{log: l, level: gormlogger.Warn, slow: SlowQuery}
}

func (d *dbLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *d
	c.level = level
	return &c
}

func (d *dbLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if d.level >= gormlogger.Info {
		logger.FromContext(ctx, d.log).Infof(msg, args...)
	}
}

func (d *dbLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if d.level >= gormlogger.Warn {
		logger.FromContext(ctx, d.log).Warnf(msg, args...)
	}
}

func (d *dbLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if d.level >= gormlogger.Error {
		logger.FromContext(ctx, d.log).Errorf(msg, args...)
	}
}

func (d *dbLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if d.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	l := logger.FromContext(ctx, d.log)
	switch {
	case err != nil && d.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.Errorw("query failed", "sql", sql, "rows", rows, logger.FieldDurationMS, elapsed.Milliseconds(), logger.FieldError, err)
	case d.slow > 0 && elapsed > d.slow && d.level >= gormlogger.Warn:
		sql, rows := fc()
		l.Warnw("slow query", "sql", sql, "rows", rows, logger.FieldDurationMS, elapsed.Milliseconds(),
			"threshold", fmt.Sprint(d.slow))
	case d.level >= gormlogger.Info:
		sql, rows := fc()
		l.Debugw("query", "sql", sql, "rows", rows, logger.FieldDurationMS, elapsed.Milliseconds())
	}
}
