package provider

import (
	"strings"

	"github.com/dujiao-next/ledger-engine/internal/cache"
	"github.com/dujiao-next/ledger-engine/internal/config"
	"github.com/dujiao-next/ledger-engine/internal/constants"
	"github.com/dujiao-next/ledger-engine/internal/logger"
	"github.com/dujiao-next/ledger-engine/internal/models"
	"github.com/dujiao-next/ledger-engine/internal/queue"
	"github.com/dujiao-next/ledger-engine/internal/repository"
	"github.com/dujiao-next/ledger-engine/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	QueueClient *queue.Client

	// Repositories
	IdempotencyRepo    repository.IdempotencyRepository
	GiftCardRepo       repository.GiftCardRepository
	EntitlementRepo    repository.EntitlementRepository
	DiscountRepo       repository.DiscountRepository
	DiscountUsageRepo  repository.DiscountUsageRepository
	SubjectProfileRepo repository.SubjectProfileRepository

	// Infrastructure
	TxRunner         repository.TransactionRunner
	IdempotencyGuard *service.IdempotencyGuard
	QuotaEngine      *service.QuotaEngine
	ProfileStore     service.ProfileStore

	// Services
	GiftCardService       *service.GiftCardService
	EntitlementService    *service.EntitlementService
	DiscountService       *service.DiscountService
	DiscountRuleEvaluator *service.DiscountRuleEvaluator
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	return Build(cfg, models.DB, queueClient)
}

// Build 基于给定数据库与队列客户端组装容器
func Build(cfg *config.Config, db *gorm.DB, queueClient *queue.Client) *Container {
	c := &Container{
		Config:      cfg,
		DB:          db,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化基础设施
	c.initInfrastructure()

	// 3. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := c.DB
	c.IdempotencyRepo = repository.NewIdempotencyRepository(db)
	c.GiftCardRepo = repository.NewGiftCardRepository(db)
	c.EntitlementRepo = repository.NewEntitlementRepository(db)
	c.DiscountRepo = repository.NewDiscountRepository(db)
	c.DiscountUsageRepo = repository.NewDiscountUsageRepository(db)
	c.SubjectProfileRepo = repository.NewSubjectProfileRepository(db)
}

func (c *Container) initInfrastructure() {
	c.TxRunner = repository.NewTransactionRunner(c.DB)
	c.IdempotencyGuard = service.NewIdempotencyGuard(c.IdempotencyRepo)
	c.QuotaEngine = service.NewQuotaEngine(c.DiscountUsageRepo)
	c.ProfileStore = c.selectProfileStore()
}

// selectProfileStore 按配置选择客户资料存储，redis 不可用时退回数据库
func (c *Container) selectProfileStore() service.ProfileStore {
	driver := strings.ToLower(strings.TrimSpace(c.Config.ProfileStore.Driver))
	if driver == constants.ProfileStoreDriverRedis {
		if cache.Enabled() {
			logger.Infow("provider_profile_store_selected", "driver", constants.ProfileStoreDriverRedis)
			return cache.NewRedisProfileStore(cache.Client(), cache.Prefix())
		}
		logger.Warnw("provider_profile_store_fallback",
			"requested", constants.ProfileStoreDriverRedis,
			"driver", constants.ProfileStoreDriverDatabase,
		)
	}
	return service.NewDatabaseProfileStore(c.SubjectProfileRepo)
}

func (c *Container) initServices() {
	c.GiftCardService = service.NewGiftCardService(
		c.GiftCardRepo,
		c.TxRunner,
		c.IdempotencyGuard,
		c.QueueClient,
		c.Config.GiftCard.CodePrefix,
	)
	c.EntitlementService = service.NewEntitlementService(c.EntitlementRepo, c.TxRunner, c.IdempotencyGuard)
	c.DiscountService = service.NewDiscountService(
		c.DiscountRepo,
		c.DiscountUsageRepo,
		c.TxRunner,
		c.IdempotencyGuard,
		c.QuotaEngine,
		c.ProfileStore,
		c.QueueClient,
		c.Config.Discount.DefinitionCacheTTL(),
	)
	c.DiscountRuleEvaluator = service.NewDiscountRuleEvaluator(c.DiscountService, c.ProfileStore, c.QuotaEngine)
}
