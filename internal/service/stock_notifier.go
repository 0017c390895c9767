package service

import (
	"context"
	"sort"

	"github.com/wardrobe-ledger/internal/cache"
	"github.com/wardrobe-ledger/internal/logger"
	"github.com/wardrobe-ledger/internal/queue"
)

// 库存变动原因
const (
	StockChangeSale       = "sale"
	StockChangeSaleDelete = "sale_delete"
	StockChangeReturn     = "return"
	StockChangeStockIn    = "stock_in"
	StockChangeAdjust     = "adjust"
	StockChangeProduct    = "product"
	StockChangeCategory   = "category"
)

// StockNotifier 库存写入提交后的通知：失效汇总缓存并投递异步任务
// 通知失败只记日志，不影响已提交的单据
type StockNotifier struct {
	queue *queue.Client
}

// NewStockNotifier 创建库存变动通知器
func NewStockNotifier(queueClient *queue.Client) *StockNotifier {
	return &StockNotifier{queue: queueClient}
}

// Notify 发布库存变动；汇总缓存总是失效，变体为空时不投递任务
func (n *StockNotifier) Notify(ctx context.Context, reason, docID string, variantIDs []string) {
	if _, err := cache.BumpStockVersion(ctx); err != nil {
		logger.Warnw("stock_cache_invalidate_failed", "reason", reason, "doc_id", docID, "error", err)
	}
	if n == nil || n.queue == nil {
		return
	}
	ids := uniqueSortedIDs(variantIDs)
	if len(ids) == 0 {
		return
	}
	if err := n.queue.EnqueueStockChanged(queue.StockChangedPayload{
		VariantIDs: ids,
		Reason:     reason,
		DocID:      docID,
	}); err != nil {
		logger.Warnw("stock_changed_enqueue_failed", "reason", reason, "doc_id", docID, "error", err)
	}
}

func uniqueSortedIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}
