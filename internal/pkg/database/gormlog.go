package database

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	gormlogger "gorm.io/gorm/logger"
)

// slogWriter hands gorm's formatted lines to the default slog logger.
type slogWriter struct{}

func (slogWriter) Printf(format string, args ...any) {
	msg := strings.Join(strings.Fields(fmt.Sprintf(format, args...)), " ")
	slog.Default().Warn(msg, "component", "gorm")
}

// newGormLogger reports slow queries and real errors. Lookups that find
// nothing are normal control flow and stay quiet.
func newGormLogger() gormlogger.Interface {
	return gormlogger.New(slogWriter{}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
