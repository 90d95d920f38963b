package app

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/talkincode/toughmon/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// sqliteDriverName is the pure Go driver registered by modernc.org/sqlite
const sqliteDriverName = "sqlite"

// NewSqliteDialector opens dsn through the pure Go sqlite driver
func NewSqliteDialector(dsn string) gorm.Dialector {
	return sqlite.Dialector{DriverName: sqliteDriverName, DSN: dsn}
}

func getDatabase(cfg config.DBConfig, workdir string) *gorm.DB {
	gormConfig := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if cfg.Debug {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	var dialector gorm.Dialector
	switch strings.ToLower(cfg.Type) {
	case "postgres", "postgresql":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.User, cfg.Passwd, cfg.Name)
		dialector = postgres.New(postgres.Config{DSN: dsn})
	case "sqlite":
		dsn := path.Join(workdir, "data", cfg.Name) + "?_pragma=busy_timeout(5000)"
		dialector = NewSqliteDialector(dsn)
	default:
		zap.S().Fatalf("unsupported database type: %s", cfg.Type)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		zap.S().Fatalf("database open failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		zap.S().Fatalf("database handle failed: %v", err)
	}
	if cfg.MaxConn > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConn)
	}
	if cfg.IdleConn > 0 {
		sqlDB.SetMaxIdleConns(cfg.IdleConn)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db
}
