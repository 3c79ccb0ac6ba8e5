package datastore

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tradesentry/fraudwatch-go/internal/logging"
)

// slowQueryThreshold marks queries worth surfacing in the logs. One second
// accommodates migration batch statements.
const slowQueryThreshold = 1 * time.Second

// createGormLogger configures the GORM logger level from the debug flag.
func createGormLogger(debug bool) gormlogger.Interface {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return gormlogger.New(&slogWriter{}, gormlogger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// slogWriter adapts the structured logger to GORM's printf-style interface.
type slogWriter struct{}

func (w *slogWriter) Printf(format string, args ...any) {
	l := logging.ForService("datastore")
	if l == nil {
		l = slog.Default()
	}
	l.Info(fmt.Sprintf(format, args...))
}

// performAutoMigration creates or updates the schema for all persisted
// models.
func performAutoMigration(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Announcement{},
		&CrossReference{},
		&SocialMediaTip{},
		&MarketActivity{},
		&EvidenceEvent{},
		&AlertRecord{},
	); err != nil {
		return dbErr("migrating database schema", err)
	}
	return nil
}
