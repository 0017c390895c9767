package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// 库存汇总缓存按版本号组织：任何库存写入都会递增版本，旧版本的键随 TTL 自然过期
const stockVersionKey = "stock:version"

// StockVersion 当前库存数据版本
func StockVersion(ctx context.Context) (int64, error) {
	return GetInt64(ctx, stockVersionKey)
}

// BumpStockVersion 库存变动后使所有汇总缓存失效
func BumpStockVersion(ctx context.Context) (int64, error) {
	return Incr(ctx, stockVersionKey)
}

// StockSummaryKey 生成汇总缓存键
func StockSummaryKey(version int64, categoryID, keyword string) string {
	raw := strings.TrimSpace(categoryID) + "|" + strings.ToLower(strings.TrimSpace(keyword))
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("stock:summary:v%d:%s", version, hex.EncodeToString(sum[:8]))
}

// GetStockSummary 读取指定版本的汇总缓存
func GetStockSummary(ctx context.Context, version int64, categoryID, keyword string, dest interface{}) (bool, error) {
	if !Enabled() {
		return false, nil
	}
	return GetJSON(ctx, StockSummaryKey(version, categoryID, keyword), dest)
}

// SetStockSummary 按读库前取得的版本写入，期间有写入则该版本已作废，不会覆盖新版本
func SetStockSummary(ctx context.Context, version int64, categoryID, keyword string, value interface{}, ttl time.Duration) error {
	if !Enabled() {
		return nil
	}
	return SetJSON(ctx, StockSummaryKey(version, categoryID, keyword), value, ttl)
}
