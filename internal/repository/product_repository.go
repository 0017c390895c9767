package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/wardrobe-ledger/internal/constants"
	"github.com/wardrobe-ledger/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 款式数据访问接口
type ProductRepository interface {
	List(filter ProductListFilter) ([]models.Product, int64, error)
	ListForSummary(filter StockSummaryFilter) ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	ListByIDs(ids []string) ([]models.Product, error)
	CountByBaseCode(baseCode string, excludeID *string) (int64, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	SetDeleted(id string, deleted bool, at time.Time) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建款式仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// Transaction 执行事务
func (r *GormProductRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// List 款式列表
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	var products []models.Product

	query := r.db.Model(&models.Product{})
	deleted := strings.ToLower(strings.TrimSpace(filter.Deleted))
	switch deleted {
	case constants.ProductDeletedFilterAll:
	case constants.ProductDeletedFilterTrue:
		query = query.Where("is_deleted = ?", true)
		if filter.DeletedFrom != nil {
			query = query.Where("deleted_at >= ?", *filter.DeletedFrom)
		}
		if filter.DeletedTo != nil {
			query = query.Where("deleted_at <= ?", *filter.DeletedTo)
		}
	default:
		query = query.Where("is_deleted = ?", false)
	}
	if categoryID := strings.TrimSpace(filter.CategoryID); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"name", "base_code"})
		query = query.Where(condition, repeatLikeArgs("%"+keyword+"%", argCount)...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Preload("Category")
	if filter.WithVariants {
		query = query.Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("color ASC, size ASC")
		})
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	order := "created_at DESC"
	if deleted == constants.ProductDeletedFilterTrue {
		order = "deleted_at DESC"
	}
	if err := query.Order(order).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListForSummary 库存汇总用：未删除款式及其分类、变体
func (r *GormProductRepository) ListForSummary(filter StockSummaryFilter) ([]models.Product, error) {
	query := r.db.Model(&models.Product{}).Where("is_deleted = ?", false)
	if categoryID := strings.TrimSpace(filter.CategoryID); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"name", "base_code"})
		query = query.Where(condition, repeatLikeArgs("%"+keyword+"%", argCount)...)
	}
	var products []models.Product
	err := query.Preload("Category").
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("color ASC, size ASC")
		}).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// GetByID 按 ID 获取款式（含已删除）
func (r *GormProductRepository) GetByID(id string) (*models.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var product models.Product
	if err := r.db.Preload("Category").
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("color ASC, size ASC")
		}).
		Where("id = ?", id).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// ListByIDs 批量获取款式
func (r *GormProductRepository) ListByIDs(ids []string) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var products []models.Product
	if err := r.db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// CountByBaseCode 统计款号数量
func (r *GormProductRepository) CountByBaseCode(baseCode string, excludeID *string) (int64, error) {
	var count int64
	query := r.db.Model(&models.Product{}).Where("base_code = ?", baseCode)
	if excludeID != nil && *excludeID != "" {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create 创建款式（连同变体）
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// Update 更新款式基础信息，不级联变体
func (r *GormProductRepository) Update(product *models.Product) error {
	return r.db.Omit("Variants", "Category").Save(product).Error
}

// SetDeleted 软删除或恢复款式
func (r *GormProductRepository) SetDeleted(id string, deleted bool, at time.Time) (int64, error) {
	updates := map[string]interface{}{
		"is_deleted": deleted,
		"updated_at": at,
	}
	if deleted {
		updates["deleted_at"] = at
	} else {
		updates["deleted_at"] = nil
	}
	result := r.db.Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
