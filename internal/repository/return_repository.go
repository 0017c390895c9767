package repository

import (
	"errors"
	"strings"

	"github.com/wardrobe-ledger/internal/models"

	"gorm.io/gorm"
)

// ReturnRepository 退货单数据访问接口
type ReturnRepository interface {
	Create(ret *models.Return) error
	GetByID(id string) (*models.Return, error)
	List(filter ReturnListFilter) ([]models.Return, int64, error)
	CountByNoPrefix(prefix string) (int64, error)
	CountBySaleID(saleID string) (int64, error)
	SumReturnedQtyByVariant(saleID string) (map[string]int, error)
	WithTx(tx *gorm.DB) ReturnRepository
}

// GormReturnRepository GORM 实现
type GormReturnRepository struct {
	db *gorm.DB
}

// NewReturnRepository 创建退货单仓库
func NewReturnRepository(db *gorm.DB) *GormReturnRepository {
	return &GormReturnRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReturnRepository) WithTx(tx *gorm.DB) ReturnRepository {
	if tx == nil {
		return r
	}
	return &GormReturnRepository{db: tx}
}

// Create 创建退货单及明细
func (r *GormReturnRepository) Create(ret *models.Return) error {
	return r.db.Create(ret).Error
}

// GetByID 获取退货单（含原销售单与明细）
func (r *GormReturnRepository) GetByID(id string) (*models.Return, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var ret models.Return
	if err := r.db.Preload("Sale").Preload("Items.Variant.Product").Where("id = ?", id).First(&ret).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ret, nil
}

// List 退货单列表，按退货时间倒序
func (r *GormReturnRepository) List(filter ReturnListFilter) ([]models.Return, int64, error) {
	query := r.db.Model(&models.Return{})
	if saleID := strings.TrimSpace(filter.SaleID); saleID != "" {
		query = query.Where("sale_id = ?", saleID)
	}
	if filter.From != nil {
		query = query.Where("returned_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("returned_at <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var returns []models.Return
	query = applyPagination(query.Preload("Sale").Preload("Items.Variant.Product"), filter.Page, filter.PageSize)
	if err := query.Order("returned_at DESC, return_no DESC").Find(&returns).Error; err != nil {
		return nil, 0, err
	}
	return returns, total, nil
}

// CountByNoPrefix 统计同一前缀（同日）的退货单数量
func (r *GormReturnRepository) CountByNoPrefix(prefix string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Return{}).Where("return_no LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountBySaleID 统计销售单已有的退货单数量
func (r *GormReturnRepository) CountBySaleID(saleID string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Return{}).Where("sale_id = ?", saleID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumReturnedQtyByVariant 按变体汇总某销售单累计已退数量
func (r *GormReturnRepository) SumReturnedQtyByVariant(saleID string) (map[string]int, error) {
	var rows []variantQtyRow
	if err := r.db.Model(&models.ReturnItem{}).
		Select("return_items.variant_id AS variant_id, COALESCE(SUM(return_items.qty), 0) AS qty").
		Joins("JOIN returns ON returns.id = return_items.return_id").
		Where("returns.sale_id = ?", saleID).
		Group("return_items.variant_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[string]int, len(rows))
	for _, row := range rows {
		result[row.VariantID] = row.Qty
	}
	return result, nil
}
