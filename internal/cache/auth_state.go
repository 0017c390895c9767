package cache

import (
	"context"
	"strings"
	"time"

	"github.com/wardrobe-ledger/internal/models"
)

const authStateCacheTTL = 10 * time.Minute

// OperatorAuthState 操作员鉴权快照
// token_invalid_before 为 Unix 秒时间戳，0 表示未设置
type OperatorAuthState struct {
	OperatorID         string `json:"operator_id"`
	Username           string `json:"username"`
	Role               string `json:"role"`
	IsActive           bool   `json:"is_active"`
	TokenVersion       uint64 `json:"token_version"`
	TokenInvalidBefore int64  `json:"token_invalid_before"`
	UpdatedAt          int64  `json:"updated_at"`
}

func operatorAuthStateKey(operatorID string) string {
	return "auth:operator:" + operatorID
}

// BuildOperatorAuthState 从操作员模型构建鉴权快照
func BuildOperatorAuthState(operator *models.Operator) *OperatorAuthState {
	if operator == nil {
		return nil
	}
	state := &OperatorAuthState{
		OperatorID:   operator.ID,
		Username:     operator.Username,
		Role:         operator.Role,
		IsActive:     operator.IsActive,
		TokenVersion: operator.TokenVersion,
		UpdatedAt:    time.Now().Unix(),
	}
	if operator.TokenInvalidBefore != nil {
		state.TokenInvalidBefore = operator.TokenInvalidBefore.Unix()
	}
	return state
}

// GetOperatorAuthState 获取操作员鉴权快照
func GetOperatorAuthState(ctx context.Context, operatorID string) (*OperatorAuthState, bool, error) {
	if strings.TrimSpace(operatorID) == "" {
		return nil, false, nil
	}
	var state OperatorAuthState
	hit, err := GetJSON(ctx, operatorAuthStateKey(operatorID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetOperatorAuthState 写入操作员鉴权快照
func SetOperatorAuthState(ctx context.Context, state *OperatorAuthState) error {
	if state == nil || state.OperatorID == "" {
		return nil
	}
	return SetJSON(ctx, operatorAuthStateKey(state.OperatorID), state, authStateCacheTTL)
}

// DelOperatorAuthState 删除操作员鉴权快照
func DelOperatorAuthState(ctx context.Context, operatorID string) error {
	if strings.TrimSpace(operatorID) == "" {
		return nil
	}
	return Del(ctx, operatorAuthStateKey(operatorID))
}
