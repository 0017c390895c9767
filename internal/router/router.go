package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wardrobe-ledger/internal/authz"
	"github.com/wardrobe-ledger/internal/cache"
	"github.com/wardrobe-ledger/internal/config"
	adminhandlers "github.com/wardrobe-ledger/internal/http/handlers/admin"
	publichandlers "github.com/wardrobe-ledger/internal/http/handlers/public"
	"github.com/wardrobe-ledger/internal/http/response"
	"github.com/wardrobe-ledger/internal/logger"
	"github.com/wardrobe-ledger/internal/provider"

	"github.com/gin-gonic/gin"
)

const apiPrefix = "/api/v1"

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "wl"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		MessageKey:    "error.login_too_many",
	}
	writeRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:write", redisPrefix),
		WindowSeconds: cfg.Security.WriteRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.WriteRateLimit.MaxAttempts,
		MessageKey:    "error.rate_limited",
		WriteOnly:     true,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group(apiPrefix)
	{
		apiV1.GET("/health", publicHandler.Health)

		public := apiV1.Group("/public")
		{
			public.GET("/config", publicHandler.GetConfig)
		}

		apiV1.POST("/auth/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("username")), adminHandler.Login)

		authorized := apiV1.Group("")
		authorized.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.OperatorRepo))
		authorized.Use(RBACMiddleware(c.AuthzService))
		authorized.Use(RateLimitMiddleware(redisClient, writeRule, KeyByOperator))
		{
			// 当前操作员
			authorized.GET("/me", adminHandler.GetMe)
			authorized.PUT("/me/password", adminHandler.UpdateMyPassword)

			// 字典
			authorized.GET("/categories", adminHandler.ListCategories)
			authorized.POST("/categories", adminHandler.CreateCategory)
			authorized.PATCH("/categories/:id", adminHandler.UpdateCategory)
			authorized.DELETE("/categories/:id", adminHandler.DeleteCategory)
			authorized.GET("/sizes", adminHandler.ListSizes)
			authorized.POST("/sizes", adminHandler.CreateSize)
			authorized.PATCH("/sizes/:id", adminHandler.UpdateSize)
			authorized.DELETE("/sizes/:id", adminHandler.DeleteSize)

			// 商品
			authorized.GET("/products", adminHandler.ListProducts)
			authorized.POST("/products", adminHandler.CreateProduct)
			authorized.GET("/products/:id", adminHandler.GetProduct)
			authorized.PATCH("/products/:id", adminHandler.PatchProduct)
			authorized.DELETE("/products/:id", adminHandler.DeleteProduct)

			// 库存
			authorized.GET("/stock/summary", adminHandler.GetStockSummary)
			authorized.GET("/stock/movements", adminHandler.ListMovements)
			authorized.POST("/stock/movements", adminHandler.CreateMovement)
			authorized.POST("/stock/receive", adminHandler.ReceiveStock)
			authorized.POST("/stock/batch-in", adminHandler.BatchReceive)
			authorized.GET("/stock/alerts", adminHandler.ListLowStockAlerts)

			// 销售与退货
			authorized.GET("/sales", adminHandler.ListSales)
			authorized.POST("/sales", adminHandler.CreateSale)
			authorized.GET("/sales/:id", adminHandler.GetSale)
			authorized.DELETE("/sales/:id", adminHandler.DeleteSale)
			authorized.GET("/returns", adminHandler.ListReturns)
			authorized.POST("/returns", adminHandler.CreateReturn)
			authorized.GET("/returns/:id", adminHandler.GetReturn)

			// 报表
			authorized.GET("/reports/sales", adminHandler.GetSalesReport)
			authorized.GET("/reports/daily", adminHandler.GetDailyReport)
			authorized.GET("/reports/top-products", adminHandler.GetTopProducts)
			authorized.POST("/reports/daily-digest", adminHandler.TriggerDailyDigest)

			// 操作员与权限
			authorized.GET("/operators", adminHandler.ListOperators)
			authorized.POST("/operators", adminHandler.CreateOperator)
			authorized.PATCH("/operators/:id", adminHandler.UpdateOperator)
			authorized.POST("/operators/:id/policies", adminHandler.GrantOperatorPolicy)
			authorized.GET("/authz/me", adminHandler.GetAuthzMe)
			authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
			authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
			authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
			authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
			authorized.GET("/permissions", func(ctx *gin.Context) {
				response.Success(ctx, buildPermissionCatalog(r))
			})
		}
	}

	return r
}

type permissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildPermissionCatalog 从已注册路由生成权限目录
func buildPermissionCatalog(engine *gin.Engine) []permissionCatalogItem {
	if engine == nil {
		return []permissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]permissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, apiPrefix+"/") {
			continue
		}
		switch item.Path {
		case apiPrefix + "/auth/login", apiPrefix + "/health":
			continue
		}
		if strings.HasPrefix(item.Path, apiPrefix+"/public/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, permissionCatalogItem{
			Module:     derivePermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func derivePermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if segments[0] == "me" || segments[0] == "authz" {
		return "operators"
	}
	return segments[0]
}
