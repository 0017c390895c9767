package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wardrobe-ledger/internal/cache"
	"github.com/wardrobe-ledger/internal/logger"
	"github.com/wardrobe-ledger/internal/provider"
	"github.com/wardrobe-ledger/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskStockChanged, c.handleStockChanged)
	mux.HandleFunc(queue.TaskReportDailyDigest, c.handleDailyDigest)
}

func (c *Consumer) location() *time.Location {
	if c == nil || c.Container == nil || c.Config == nil {
		return time.Local
	}
	return c.Config.Inventory.Location()
}

func (c *Consumer) handleStockChanged(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_stock_changed_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseStockChangedPayload(task)
	if err != nil {
		logger.Warnw("worker_stock_changed_unmarshal_failed", "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if len(payload.VariantIDs) == 0 {
		logger.Debugw("worker_stock_changed_skip_empty", "reason", payload.Reason, "doc_id", payload.DocID)
		return nil
	}

	// 提交后到任务执行之间可能有读请求回填旧汇总
	if _, err := cache.BumpStockVersion(ctx); err != nil {
		logger.Warnw("worker_stock_cache_invalidate_failed", "reason", payload.Reason, "error", err)
	}

	if c.StockService == nil {
		logger.Warnw("worker_stock_changed_skip_service_nil", "doc_id", payload.DocID)
		return nil
	}
	opened, resolved, err := c.StockService.CheckLowStock(ctx, payload.VariantIDs)
	if err != nil {
		logger.Warnw("worker_low_stock_check_failed",
			"reason", payload.Reason,
			"doc_id", payload.DocID,
			"variant_count", len(payload.VariantIDs),
			"error", err,
		)
		return err
	}
	logger.Debugw("worker_stock_changed_done",
		"reason", payload.Reason,
		"doc_id", payload.DocID,
		"alerts_opened", opened,
		"alerts_resolved", resolved,
	)
	return nil
}

func (c *Consumer) handleDailyDigest(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_daily_digest_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseDailyDigestPayload(task)
	if err != nil {
		logger.Warnw("worker_daily_digest_unmarshal_failed", "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	day, err := parseDigestDate(payload.Date, c.location())
	if err != nil {
		logger.Warnw("worker_daily_digest_date_invalid", "date", payload.Date, "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if c.ReportService == nil {
		logger.Warnw("worker_daily_digest_skip_service_nil")
		return nil
	}
	if c.StockService != nil {
		// 夜间顺带全量巡检低库存，巡检失败不影响日报
		if opened, resolved, err := c.StockService.SweepLowStock(ctx); err != nil {
			logger.Warnw("worker_low_stock_sweep_failed", "error", err)
		} else if opened > 0 || resolved > 0 {
			logger.Infow("worker_low_stock_sweep_done", "opened", opened, "resolved", resolved)
		}
	}
	digest, err := c.ReportService.BuildDailyDigest(ctx, day)
	if err != nil {
		logger.Warnw("worker_daily_digest_failed", "date", payload.Date, "error", err)
		return err
	}
	topCodes := make([]string, 0, len(digest.TopProducts))
	for _, row := range digest.TopProducts {
		topCodes = append(topCodes, row.BaseCode)
	}
	logger.Infow("daily_digest",
		"date", digest.Date,
		"revenue", digest.Revenue.String(),
		"refunds", digest.Refunds.String(),
		"net", digest.Net.String(),
		"top_products", strings.Join(topCodes, ","),
	)
	return nil
}

// parseDigestDate 空字符串返回 nil，由报表服务取前一天
func parseDigestDate(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return nil, err
	}
	return &day, nil
}
