package models

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite" // 纯 Go SQLite 驱动（基于 modernc.org/sqlite）
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// DBPoolConfig 数据库连接池配置
type DBPoolConfig struct {
	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeSeconds int
	ConnMaxIdleTimeSeconds int
}

// DBOptions 数据库初始化参数
type DBOptions struct {
	Driver string
	DSN    string
	Pool   DBPoolConfig
	Logger gormlogger.Interface
}

// InitDB 初始化数据库连接
func InitDB(options DBOptions) error {
	dialector, err := openDialector(options.Driver, options.DSN)
	if err != nil {
		return err
	}
	gormConfig := &gorm.Config{TranslateError: true}
	if options.Logger != nil {
		gormConfig.Logger = options.Logger
	} else {
		gormConfig.Logger = gormlogger.Default.LogMode(gormlogger.Warn)
	}

	DB, err = gorm.Open(dialector, gormConfig)
	if err != nil {
		return err
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	applyDBPool(sqlDB, options.Pool)
	return nil
}

func openDialector(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite":
		if !strings.Contains(dsn, "_pragma=") && !strings.HasPrefix(dsn, "file:") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			// 写锁等待，避免并发开单时直接返回 SQLITE_BUSY
			dsn = dsn + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
		}
		return sqlite.Open(dsn), nil
	case "postgres", "postgresql":
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

func applyDBPool(sqlDB *sql.DB, pool DBPoolConfig) {
	if sqlDB == nil {
		return
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns >= 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetimeSeconds > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeSeconds) * time.Second)
	}
	if pool.ConnMaxIdleTimeSeconds > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTimeSeconds) * time.Second)
	}
}

// AllModels 返回需要迁移的全部模型
func AllModels() []interface{} {
	return []interface{}{
		&Operator{},
		&Category{},
		&Size{},
		&Product{},
		&Variant{},
		&StockMovement{},
		&Sale{},
		&SaleItem{},
		&Return{},
		&ReturnItem{},
		&DocumentCounter{},
		&StockAlert{},
	}
}

// AutoMigrate 自动迁移所有数据库表
func AutoMigrate() error {
	return DB.AutoMigrate(AllModels()...)
}
