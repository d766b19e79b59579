package models

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	applogger "github.com/dujiao-next/ledger-engine/internal/logger"

	"github.com/glebarez/sqlite" // 纯 Go SQLite 驱动（基于 modernc.org/sqlite）
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// DBPoolConfig 数据库连接池配置
type DBPoolConfig struct {
	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeSeconds int
	ConnMaxIdleTimeSeconds int
}

// DBOptions 数据库打开选项
type DBOptions struct {
	Pool          DBPoolConfig
	LogLevel      string
	SlowThreshold time.Duration
}

// InitDB 初始化全局数据库连接
func InitDB(driver, dsn string, opts DBOptions) error {
	db, err := OpenDB(driver, dsn, opts)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// OpenDB 打开数据库连接，唯一键冲突统一翻译为 gorm.ErrDuplicatedKey
func OpenDB(driver, dsn string, opts DBOptions) (*gorm.DB, error) {
	normalized := strings.ToLower(strings.TrimSpace(driver))
	var dialector gorm.Dialector
	switch normalized {
	case "", "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(opts),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	applyDBPool(sqlDB, opts.Pool)
	return db, nil
}

func newGormLogger(opts DBOptions) logger.Interface {
	level := logger.Warn
	switch strings.ToLower(strings.TrimSpace(opts.LogLevel)) {
	case "silent":
		level = logger.Silent
	case "error":
		level = logger.Error
	case "info":
		level = logger.Info
	}
	slow := opts.SlowThreshold
	if slow <= 0 {
		slow = 200 * time.Millisecond
	}
	return logger.New(applogger.StdLogger(), logger.Config{
		SlowThreshold:             slow,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

func applyDBPool(sqlDB *sql.DB, pool DBPoolConfig) {
	if sqlDB == nil {
		return
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	// 0 保留默认空闲连接数，否则共享内存 sqlite 会随连接关闭而丢失
	if pool.MaxIdleConns > 0 {
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
		&IdempotencyRecord{},
		&GiftCard{},
		&GiftCardEvent{},
		&MembershipEntitlementState{},
		&MembershipEntitlementEvent{},
		&MembershipDiscount{},
		&MembershipDiscountRule{},
		&MembershipDiscountUsageEvent{},
		&SubjectProfile{},
	}
}

// AutoMigrate 自动迁移所有数据库表
func AutoMigrate() error {
	return DB.AutoMigrate(AllModels()...)
}

// MissingTables 返回尚未创建的表名
func MissingTables(db *gorm.DB) []string {
	if db == nil {
		return nil
	}
	migrator := db.Migrator()
	missing := make([]string, 0)
	for _, model := range AllModels() {
		if !migrator.HasTable(model) {
			if tabler, ok := model.(interface{ TableName() string }); ok {
				missing = append(missing, tabler.TableName())
			}
		}
	}
	return missing
}
