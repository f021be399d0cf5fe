package system

import (
	"errors"
	"sync"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"atlas/api/log"
)

var (
	db   *gorm.DB
	dbMu sync.RWMutex
)

// InitDb 连接 MySQL，只在 TILE_SOURCE=mysql 时调用
func InitDb(dsn string) error {
	if dsn == "" {
		return errors.New("mysql dsn is empty")
	}
	gormLogger := logger.New(log.Logger(), logger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
	conn, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	SetDb(conn)
	return nil
}

func SetDb(conn *gorm.DB) {
	dbMu.Lock()
	db = conn
	dbMu.Unlock()
}

func GetDb() *gorm.DB {
	dbMu.RLock()
	defer dbMu.RUnlock()
	return db
}
