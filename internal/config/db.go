package config

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// driverName is the database/sql name registered by modernc.org/sqlite, which ships with FTS5.
const driverName = "sqlite"

// GetDb opens the database file named by the config.
func GetDb(cfg *Config) (*gorm.DB, error) {
	return OpenDb(cfg.DBPath())
}

// OpenDb opens an sqlite database with a single connection so statements are serialized.
func OpenDb(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.New(sqlite.Config{
		DriverName: driverName,
		DSN:        dsn,
	}), &gorm.Config{
		Logger: logger.New(logrus.StandardLogger(), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}
