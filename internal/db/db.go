package db

import (
	"strings"
	"time"

	"github.com/bestruirui/argus/internal/model"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// InitDB opens the embedded monitor store and migrates its schema. The
// aggregate side is always sqlite; the gateway's own store is handled by the
// source package.
func InitDB(path string, debug bool) error {
	var err error
	gormConfig := gorm.Config{Logger: logger.Discard}
	if debug {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err = gorm.Open(sqlite.Open(sqliteDSN(path)), &gormConfig)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(4)
	sqlDB.SetMaxOpenConns(16)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db.AutoMigrate(
		&model.Meta{},
		&model.HourlyStat{},
		&model.Alert{},
		&model.AlertHistory{},
		&model.ChannelSnapshot{},
	)
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	params := []string{
		"_journal_mode=WAL",
		"_synchronous=NORMAL",
		"_busy_timeout=5000",
		"_foreign_keys=ON",
	}
	return path + "?" + strings.Join(params, "&")
}

func Close() error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func GetDB() *gorm.DB {
	return db
}
