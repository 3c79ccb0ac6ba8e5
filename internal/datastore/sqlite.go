package datastore

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tradesentry/fraudwatch-go/internal/conf"
	"github.com/tradesentry/fraudwatch-go/internal/errors"
)

// SQLiteStore implements the datastore for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

func validateSQLiteConfig(settings *conf.Settings) error {
	if settings.Output.SQLite.Path == "" {
		return errors.Newf("sqlite path is not configured").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

// Open sets up the SQLite database connection and runs migrations.
func (store *SQLiteStore) Open() error {
	if err := validateSQLiteConfig(store.Settings); err != nil {
		return err
	}

	db, err := gorm.Open(sqlite.Open(store.Settings.Output.SQLite.Path), &gorm.Config{
		Logger: createGormLogger(store.Settings.Main.Debug),
	})
	if err != nil {
		return dbErr("opening sqlite database", err)
	}

	// An in-memory database exists per connection, so the pool must stay
	// on a single one.
	if store.Settings.Output.SQLite.Path == ":memory:" {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	store.DB = db
	return performAutoMigration(db)
}

// Close is a no-op for SQLite; the driver manages the file handle.
func (store *SQLiteStore) Close() error {
	return nil
}
