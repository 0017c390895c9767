package repository

import (
	"time"

	"github.com/wardrobe-ledger/internal/models"

	"gorm.io/gorm"
)

// StockAlertRepository 低库存提醒数据访问接口
type StockAlertRepository interface {
	List(filter StockAlertListFilter) ([]models.StockAlert, int64, error)
	ListOpenByVariantIDs(variantIDs []string) ([]models.StockAlert, error)
	Create(alert *models.StockAlert) error
	UpdateQty(id string, qty int) error
	Resolve(ids []string, at time.Time) error
}

// GormStockAlertRepository GORM 实现
type GormStockAlertRepository struct {
	db *gorm.DB
}

// NewStockAlertRepository 创建低库存提醒仓库
func NewStockAlertRepository(db *gorm.DB) *GormStockAlertRepository {
	return &GormStockAlertRepository{db: db}
}

// List 提醒列表，默认只看未解除
func (r *GormStockAlertRepository) List(filter StockAlertListFilter) ([]models.StockAlert, int64, error) {
	query := r.db.Model(&models.StockAlert{})
	if !filter.IncludeResolved {
		query = query.Where("resolved = ?", false)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var alerts []models.StockAlert
	query = applyPagination(query.Preload("Variant.Product"), filter.Page, filter.PageSize)
	if err := query.Order("created_at DESC, id DESC").Find(&alerts).Error; err != nil {
		return nil, 0, err
	}
	return alerts, total, nil
}

// ListOpenByVariantIDs 获取变体当前未解除的提醒
func (r *GormStockAlertRepository) ListOpenByVariantIDs(variantIDs []string) ([]models.StockAlert, error) {
	if len(variantIDs) == 0 {
		return []models.StockAlert{}, nil
	}
	var alerts []models.StockAlert
	if err := r.db.Where("variant_id IN ? AND resolved = ?", variantIDs, false).Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// Create 创建提醒
func (r *GormStockAlertRepository) Create(alert *models.StockAlert) error {
	return r.db.Create(alert).Error
}

// UpdateQty 刷新提醒中的库存数
func (r *GormStockAlertRepository) UpdateQty(id string, qty int) error {
	return r.db.Model(&models.StockAlert{}).Where("id = ?", id).Update("qty", qty).Error
}

// Resolve 库存回升后解除提醒
func (r *GormStockAlertRepository) Resolve(ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&models.StockAlert{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"resolved": true, "resolved_at": at}).Error
}
