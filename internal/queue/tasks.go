package queue

import (
	"encoding/json"
	"fmt"

	"github.com/wardrobe-ledger/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskStockChanged 库存变动后续处理（缓存失效、低库存提醒）
	TaskStockChanged = constants.TaskStockChanged
	// TaskReportDailyDigest 每日经营摘要
	TaskReportDailyDigest = constants.TaskReportDailyDigest
)

// StockChangedPayload 库存变动任务载荷
type StockChangedPayload struct {
	VariantIDs []string `json:"variant_ids"`
	Reason     string   `json:"reason"` // sale / return / sale_delete / stock_in / adjust
	DocID      string   `json:"doc_id,omitempty"`
}

// DailyDigestPayload 每日摘要任务载荷，Date 为空表示前一天
type DailyDigestPayload struct {
	Date string `json:"date,omitempty"` // YYYY-MM-DD
}

// NewStockChangedTask 创建库存变动任务
func NewStockChangedTask(payload StockChangedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockChanged, body), nil
}

// NewDailyDigestTask 创建每日摘要任务
func NewDailyDigestTask(payload DailyDigestPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportDailyDigest, body), nil
}

// ParseStockChangedPayload 解析库存变动任务载荷
func ParseStockChangedPayload(task *asynq.Task) (StockChangedPayload, error) {
	var payload StockChangedPayload
	if task == nil {
		return payload, fmt.Errorf("task is nil")
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("decode %s payload: %w", task.Type(), err)
	}
	return payload, nil
}

// ParseDailyDigestPayload 解析每日摘要任务载荷
func ParseDailyDigestPayload(task *asynq.Task) (DailyDigestPayload, error) {
	var payload DailyDigestPayload
	if task == nil {
		return payload, fmt.Errorf("task is nil")
	}
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("decode %s payload: %w", task.Type(), err)
	}
	return payload, nil
}
