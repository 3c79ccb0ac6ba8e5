package datastore

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/tradesentry/fraudwatch-go/internal/conf"
	"github.com/tradesentry/fraudwatch-go/internal/errors"
)

// MySQLStore implements the datastore for MySQL
type MySQLStore struct {
	DataStore
	Settings *conf.Settings
}

func validateMySQLConfig(settings *conf.Settings) error {
	c := settings.Output.MySQL
	if c.Username == "" || c.Database == "" || c.Host == "" || c.Port == "" {
		return errors.Newf("mysql configuration incomplete: username, database, host and port are required").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

// Open sets up the MySQL database connection and runs migrations.
func (store *MySQLStore) Open() error {
	if err := validateMySQLConfig(store.Settings); err != nil {
		return err
	}

	c := store.Settings.Output.MySQL
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: createGormLogger(store.Settings.Main.Debug),
	})
	if err != nil {
		return dbErr("opening mysql database", err)
	}

	store.DB = db
	return performAutoMigration(db)
}

// Close closes the underlying SQL database connection.
func (store *MySQLStore) Close() error {
	if store.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryState).
			Build()
	}

	sqlDB, err := store.DB.DB()
	if err != nil {
		return dbErr("retrieving generic DB object", err)
	}
	if err := sqlDB.Close(); err != nil {
		return dbErr("closing mysql database", err)
	}
	return nil
}
