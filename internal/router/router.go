package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/padaria-next/internal/cache"
	"github.com/padaria-next/internal/config"
	adminhandlers "github.com/padaria-next/internal/http/handlers/admin"
	"github.com/padaria-next/internal/http/response"
	"github.com/padaria-next/internal/logger"
	"github.com/padaria-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "padaria"
	}
	redisClient := cache.Client()
	commitRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:commit", redisPrefix),
		WindowSeconds: cfg.RateLimit.WindowSeconds,
		MaxRequests:   cfg.RateLimit.MaxRequests,
		Message:       "too many delivery commits",
	}
	batchRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:batch", redisPrefix),
		WindowSeconds: cfg.RateLimit.WindowSeconds,
		MaxRequests:   cfg.RateLimit.MaxRequests,
		Message:       "too many batch confirmations",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))
	r.Use(MetricsMiddleware(c.Metrics))

	apiV1 := r.Group("/api/v1")
	{
		// 管理接口（鉴权不在本服务范围内）
		admin := apiV1.Group("/admin")
		{
			// 分类与客户
			admin.GET("/categories", adminHandler.ListCategories)
			admin.POST("/categories", adminHandler.CreateCategory)
			admin.PUT("/categories/:id", adminHandler.UpdateCategory)
			admin.GET("/clients", adminHandler.ListClients)
			admin.POST("/clients", adminHandler.CreateClient)

			// 商品与分配百分比
			admin.GET("/products", adminHandler.ListProducts)
			admin.POST("/products", adminHandler.CreateProduct)
			admin.PUT("/products/allocations", adminHandler.UpdateAllocations)
			admin.GET("/products/:id", adminHandler.GetProduct)
			admin.PUT("/products/:id", adminHandler.UpdateProduct)

			// 库存
			admin.GET("/inventory/balances", adminHandler.GetBalances)
			admin.GET("/inventory/low-stock", adminHandler.GetLowStock)
			admin.GET("/inventory/movements", adminHandler.ListMovements)
			admin.POST("/inventory/movements", adminHandler.RecordMovement)

			// 配送订单
			admin.POST("/orders", adminHandler.CreateOrder)
			admin.GET("/orders", adminHandler.ListOrders)
			admin.GET("/orders/:id", adminHandler.GetOrder)
			admin.POST("/orders/:id/cancel", adminHandler.CancelOrder)
			admin.GET("/orders/:id/requirements", adminHandler.GetOrderRequirements)
			admin.POST("/orders/:id/confirm", RateLimitMiddleware(redisClient, commitRule, KeyByOrderParam), adminHandler.ConfirmOrder)

			// 交付
			admin.POST("/fulfillment/validate", adminHandler.ValidateOrders)
			admin.POST("/fulfillment/commit", RateLimitMiddleware(redisClient, commitRule, KeyByIPAndJSONField("execution_token")), adminHandler.CommitDelivery)
			admin.POST("/fulfillment/batches", RateLimitMiddleware(redisClient, batchRule, KeyByIP), adminHandler.ConfirmBatch)
			admin.POST("/fulfillment/batches/async", RateLimitMiddleware(redisClient, batchRule, KeyByIP), adminHandler.EnqueueBatch)

			admin.GET("/routes", func(ctx *gin.Context) {
				response.Success(ctx, buildRouteCatalog(r))
			})
		}
	}

	if cfg.Metrics.Enabled && c.Metrics != nil {
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(c.Metrics.Handler()))
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type routeCatalogItem struct {
	Module string `json:"module"`
	Method string `json:"method"`
	Path   string `json:"path"`
}

// buildRouteCatalog 列出管理端接口，按模块分组
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
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		key := method + ":" + item.Path
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
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

func deriveRouteModule(path string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(path), "/api/v1/admin/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	return segments[0]
}
