package app

import (
	"fmt"

	"github.com/dujiao-next/ledger-engine/internal/config"
	"github.com/dujiao-next/ledger-engine/internal/logger"
	"github.com/dujiao-next/ledger-engine/internal/models"
)

// InitDatabase 打开全局数据库连接，按配置自动迁移
// 未开启迁移且缺表时服务仍可启动，相关接口返回 schema_unready
func InitDatabase(cfg config.DatabaseConfig) error {
	if err := models.InitDB(cfg.Driver, cfg.DSN, models.DBOptions{
		Pool: models.DBPoolConfig{
			MaxOpenConns:           cfg.Pool.MaxOpenConns,
			MaxIdleConns:           cfg.Pool.MaxIdleConns,
			ConnMaxLifetimeSeconds: cfg.Pool.ConnMaxLifetimeSeconds,
			ConnMaxIdleTimeSeconds: cfg.Pool.ConnMaxIdleTimeSeconds,
		},
		LogLevel:      cfg.LogLevel,
		SlowThreshold: cfg.SlowThreshold(),
	}); err != nil {
		return fmt.Errorf("init database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := models.AutoMigrate(); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		logger.Infow("database_migrated", "driver", cfg.Driver)
		return nil
	}

	if missing := models.MissingTables(models.DB); len(missing) > 0 {
		logger.Warnw("database_schema_unready", "missing_tables", missing)
	}
	return nil
}
