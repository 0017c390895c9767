package service

import (
	"errors"
	"fmt"
)

// 通用
var (
	ErrNotFound         = errors.New("记录不存在")
	ErrInvalidDateRange = errors.New("日期范围无效")
)

// 单据校验
var (
	ErrEmptyItems          = errors.New("明细不能为空")
	ErrMissingVariant      = errors.New("明细缺少变体")
	ErrInvalidQty          = errors.New("数量无效")
	ErrInvalidPrice        = errors.New("价格无效")
	ErrInvalidMovementType = errors.New("流水类型无效")
)

// 业务规则
var (
	ErrInsufficientStock = errors.New("库存不足")
	ErrOverReturn        = errors.New("退货数量超过可退数量")
	ErrSaleNotFound      = errors.New("销售单不存在")
	ErrSaleHasReturns    = errors.New("销售单已有退货，不能删除")
	ErrReturnNotFound    = errors.New("退货单不存在")
	ErrVariantNotFound   = errors.New("变体不存在")
)

// 单号分配
var (
	ErrNumberingFailed = errors.New("单号生成失败")
	// ErrDocumentNoCollision 单号唯一约束冲突，仅在重试循环内部使用
	ErrDocumentNoCollision = errors.New("单号冲突")
)

// 款式 / 字典
var (
	ErrProductNotFound         = errors.New("款式不存在")
	ErrProductInvalid          = errors.New("款式名称和款号不能为空")
	ErrProductBaseCodeExists   = errors.New("款号已存在")
	ErrProductVariantsRequired = errors.New("至少需要一个有效变体")
	ErrCategoryNotFound        = errors.New("分类不存在")
	ErrCategoryInvalid         = errors.New("分类名称不能为空")
	ErrCategoryExists          = errors.New("分类已存在")
	ErrSizeNotFound            = errors.New("尺码不存在")
	ErrSizeInvalid             = errors.New("尺码名称不能为空")
	ErrSizeExists              = errors.New("尺码已存在")
)

// 认证
var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrOperatorDisabled   = errors.New("账号已停用")
	ErrInvalidToken       = errors.New("无效的 token")
	ErrTokenRevoked       = errors.New("token 已失效")
	ErrPasswordMismatch   = errors.New("原密码错误")
	ErrWeakPassword       = errors.New("密码强度不足")
	ErrOperatorExists     = errors.New("账号已存在")
	ErrInvalidRole        = errors.New("角色无效")
	ErrOperatorInvalid    = errors.New("账号不能为空")
)

// StockShortageError 某个 SKU 库存不足
type StockShortageError struct {
	SKU       string
	Available int
	Requested int
}

func (e *StockShortageError) Error() string {
	return fmt.Sprintf("%s 库存不足（可用 %d，需要 %d）", e.SKU, e.Available, e.Requested)
}

// Unwrap 支持 errors.Is(err, ErrInsufficientStock)
func (e *StockShortageError) Unwrap() error {
	return ErrInsufficientStock
}

// OverReturnError 某个 SKU 退货数量超出可退数量
type OverReturnError struct {
	SKU        string
	Returnable int
	Requested  int
}

func (e *OverReturnError) Error() string {
	return fmt.Sprintf("%s 可退 %d，本次退 %d", e.SKU, e.Returnable, e.Requested)
}

// Unwrap 支持 errors.Is(err, ErrOverReturn)
func (e *OverReturnError) Unwrap() error {
	return ErrOverReturn
}
