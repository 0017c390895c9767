package repository

import (
	"errors"
	"strings"

	"github.com/wardrobe-ledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VariantRepository 变体数据访问接口
type VariantRepository interface {
	GetByID(id string) (*models.Variant, error)
	GetByIDForUpdate(id string) (*models.Variant, error)
	ListByIDs(ids []string) ([]models.Variant, error)
	ListByIDsForUpdate(ids []string) ([]models.Variant, error)
	ListActive() ([]models.Variant, error)
	FindByProductColorSize(productID, color, size string) (*models.Variant, error)
	Create(variant *models.Variant) error
	UpdateCost(id string, cost models.Cost) error
	WithTx(tx *gorm.DB) VariantRepository
}

// GormVariantRepository GORM 实现
type GormVariantRepository struct {
	db *gorm.DB
}

// NewVariantRepository 创建变体仓库
func NewVariantRepository(db *gorm.DB) *GormVariantRepository {
	return &GormVariantRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVariantRepository) WithTx(tx *gorm.DB) VariantRepository {
	if tx == nil {
		return r
	}
	return &GormVariantRepository{db: tx}
}

// GetByID 按 ID 获取变体（含款式）
func (r *GormVariantRepository) GetByID(id string) (*models.Variant, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var variant models.Variant
	if err := r.db.Preload("Product").Where("id = ?", id).First(&variant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &variant, nil
}

// GetByIDForUpdate 加锁获取变体
func (r *GormVariantRepository) GetByIDForUpdate(id string) (*models.Variant, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var variant models.Variant
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&variant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &variant, nil
}

// ListByIDs 批量获取变体（含款式）
func (r *GormVariantRepository) ListByIDs(ids []string) ([]models.Variant, error) {
	if len(ids) == 0 {
		return []models.Variant{}, nil
	}
	var variants []models.Variant
	if err := r.db.Preload("Product").Where("id IN ?", ids).Order("id ASC").Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// ListByIDsForUpdate 按 ID 顺序批量加锁，固定加锁顺序避免死锁
func (r *GormVariantRepository) ListByIDsForUpdate(ids []string) ([]models.Variant, error) {
	if len(ids) == 0 {
		return []models.Variant{}, nil
	}
	var variants []models.Variant
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// ListActive 列出未删除款式下的全部变体
func (r *GormVariantRepository) ListActive() ([]models.Variant, error) {
	var variants []models.Variant
	err := r.db.Model(&models.Variant{}).
		Joins("JOIN products ON products.id = variants.product_id").
		Where("products.is_deleted = ?", false).
		Order("variants.id ASC").
		Find(&variants).Error
	if err != nil {
		return nil, err
	}
	return variants, nil
}

// FindByProductColorSize 按 款式+颜色+尺码 查找变体
func (r *GormVariantRepository) FindByProductColorSize(productID, color, size string) (*models.Variant, error) {
	var variant models.Variant
	if err := r.db.Where("product_id = ? AND color = ? AND size = ?", productID, color, size).
		First(&variant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &variant, nil
}

// Create 创建变体
func (r *GormVariantRepository) Create(variant *models.Variant) error {
	return r.db.Create(variant).Error
}

// UpdateCost 更新加权平均成本
func (r *GormVariantRepository) UpdateCost(id string, cost models.Cost) error {
	return r.db.Model(&models.Variant{}).Where("id = ?", id).Update("cost_price", cost).Error
}
