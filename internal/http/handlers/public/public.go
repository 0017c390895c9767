package public

import (
	"context"
	"time"

	"github.com/wardrobe-ledger/internal/cache"
	"github.com/wardrobe-ledger/internal/http/response"
	"github.com/wardrobe-ledger/internal/i18n"
	"github.com/wardrobe-ledger/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	publicConfigCacheKey = "public:config"
	publicConfigCacheTTL = 60 * time.Second
	healthCheckTimeout   = 2 * time.Second
)

// HealthStatus 健康检查结果
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
	Queue    bool   `json:"queue"`
}

// Health 健康检查：数据库必须可用，Redis 未启用时标记 disabled
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := HealthStatus{Status: "ok", Database: "ok", Redis: "disabled"}
	if models.DB == nil {
		status.Status = "degraded"
		status.Database = "unavailable"
	} else if sqlDB, err := models.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		status.Status = "degraded"
		status.Database = "unavailable"
	}
	if cache.Enabled() {
		status.Redis = "ok"
		if err := cache.Ping(ctx); err != nil {
			status.Status = "degraded"
			status.Redis = "unavailable"
		}
	}
	if h != nil && h.Container != nil {
		status.Queue = h.QueueClient.Enabled()
	}

	if status.Database != "ok" {
		respondError(c, response.CodeInternal, "error.internal", nil)
		return
	}
	response.Success(c, status)
}

// GetConfig 前端引导配置：语言、时区与库存阈值
func (h *Handler) GetConfig(c *gin.Context) {
	var cached map[string]interface{}
	if hit, err := cache.GetJSON(c.Request.Context(), publicConfigCacheKey, &cached); err == nil && hit {
		response.Success(c, cached)
		return
	}

	data := map[string]interface{}{
		"languages":      []string{i18n.LocaleZhCN, i18n.LocaleEnUS},
		"default_locale": i18n.DefaultLocale,
	}
	if h != nil && h.Container != nil && h.Config != nil {
		inventory := h.Config.Inventory
		data["timezone"] = inventory.Location().String()
		data["low_stock_threshold"] = inventory.LowStockThreshold
		data["numbering_strategy"] = inventory.NumberingStrategy
		data["top_limit_default"] = h.Config.Report.TopLimitDefault
	}
	_ = cache.SetJSON(c.Request.Context(), publicConfigCacheKey, data, publicConfigCacheTTL)
	response.Success(c, data)
}
