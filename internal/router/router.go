package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dujiao-next/ledger-engine/internal/cache"
	"github.com/dujiao-next/ledger-engine/internal/config"
	"github.com/dujiao-next/ledger-engine/internal/constants"
	adminhandlers "github.com/dujiao-next/ledger-engine/internal/http/handlers/admin"
	publichandlers "github.com/dujiao-next/ledger-engine/internal/http/handlers/public"
	"github.com/dujiao-next/ledger-engine/internal/http/response"
	"github.com/dujiao-next/ledger-engine/internal/logger"
	"github.com/dujiao-next/ledger-engine/internal/metrics"
	"github.com/dujiao-next/ledger-engine/internal/models"
	"github.com/dujiao-next/ledger-engine/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	mutationRule := RateLimitRule{
		Name:          "mutation",
		Prefix:        fmt.Sprintf("%s:rate:mutation", redisPrefix),
		WindowSeconds: cfg.Security.MutationRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.MutationRateLimit.MaxRequests,
	}
	redeemRule := mutationRule
	redeemRule.Name = "redeem"
	redeemRule.Prefix = fmt.Sprintf("%s:rate:redeem", redisPrefix)
	mutationLimit := RateLimitMiddleware(redisClient, mutationRule, KeyByIP)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))
	if cfg.Metrics.Enabled {
		r.Use(MetricsMiddleware())
	}

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 业务方接口
		public := apiV1.Group("/public")
		{
			public.POST("/gift-cards", mutationLimit, publicHandler.IssueGiftCard)
			public.POST("/gift-cards/redeem", RateLimitMiddleware(redisClient, redeemRule, KeyByIPAndJSONField("code")), publicHandler.RedeemGiftCard)
			public.GET("/gift-cards/:code", publicHandler.GetGiftCard)
			public.GET("/gift-cards/:code/events", publicHandler.ListGiftCardEvents)

			public.POST("/membership-entitlements/consume", mutationLimit, publicHandler.ConsumeEntitlementSlot)
			public.POST("/membership-entitlements/release", mutationLimit, publicHandler.ReleaseEntitlementSlot)

			public.POST("/membership-discounts/evaluate", publicHandler.EvaluateMembershipDiscount)
			public.POST("/membership-discounts/reverse", mutationLimit, publicHandler.ReverseMembershipDiscount)
			public.POST("/membership-discounts/apply", mutationLimit, publicHandler.ApplyMembershipDiscount)

			public.POST("/membership/increment-usage", publicHandler.DeprecatedIncrementUsage)
		}

		// 运营接口
		admin := apiV1.Group("/admin")
		{
			admin.GET("/gift-cards", adminHandler.GetAdminGiftCards)
			admin.POST("/gift-cards/:code/disable", adminHandler.DisableGiftCard)
			admin.GET("/gift-cards/:code/events", adminHandler.GetAdminGiftCardEvents)

			admin.GET("/membership-entitlements", adminHandler.GetAdminEntitlements)

			admin.GET("/membership-discounts", adminHandler.GetAdminDiscounts)
			admin.POST("/membership-discounts", adminHandler.CreateAdminDiscount)
			admin.GET("/membership-discounts/:id", adminHandler.GetAdminDiscount)
			admin.PUT("/membership-discounts/:id", adminHandler.UpdateAdminDiscount)

			admin.GET("/routes", func(ctx *gin.Context) {
				response.Success(ctx, gin.H{"routes": buildRouteCatalog(r)})
			})
		}
	}

	// 健康检查
	r.GET("/health", healthHandler(c))

	if cfg.Metrics.Enabled {
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(metrics.Handler()))
	}

	return r
}

// healthHandler 检查数据库连通性与表结构就绪
func healthHandler(c *provider.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if c == nil || c.DB == nil {
			ctx.JSON(503, gin.H{"status": "unavailable", "database": "not_configured"})
			return
		}
		sqlDB, err := c.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx.Request.Context())
		}
		if err != nil {
			logger.Warnw("health_database_ping_failed", "error", err)
			ctx.JSON(503, gin.H{"status": "unavailable", "database": "unreachable"})
			return
		}
		missing := models.MissingTables(c.DB)
		if len(missing) > 0 {
			ctx.JSON(503, gin.H{"status": "schema_unready", "missing_tables": missing})
			return
		}
		body := gin.H{"status": "ok"}
		if cache.Enabled() {
			if err := cache.Ping(ctx.Request.Context()); err != nil {
				body["redis"] = "unreachable"
			} else {
				body["redis"] = "ok"
			}
		}
		ctx.JSON(200, body)
	}
}

type routeCatalogItem struct {
	Module string `json:"module"`
	Method string `json:"method"`
	Path   string `json:"path"`
}

// buildRouteCatalog 汇总 /api/v1 下已注册的接口
func buildRouteCatalog(engine *gin.Engine) []routeCatalogItem {
	if engine == nil {
		return []routeCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]routeCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/") {
			continue
		}
		signature := method + " " + item.Path
		if _, exists := seen[signature]; exists {
			continue
		}
		seen[signature] = struct{}{}
		items = append(items, routeCatalogItem{
			Module: deriveRouteModule(item.Path),
			Method: method,
			Path:   item.Path,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Path == items[j].Path {
				return items[i].Method < items[j].Method
			}
			return items[i].Path < items[j].Path
		}
		return items[i].Module < items[j].Module
	})

	return items
}

// deriveRouteModule 取 /api/v1/<group>/<module> 的 module 段
func deriveRouteModule(path string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(path), "/api/v1/")
	segments := strings.Split(strings.Trim(normalized, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "system"
	}
	if len(segments) == 1 {
		return segments[0]
	}
	if segments[0] != "public" && segments[0] != "admin" {
		return segments[0]
	}
	return segments[1]
}
