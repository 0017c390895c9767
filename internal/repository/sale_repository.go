package repository

import (
	"errors"
	"strings"

	"github.com/wardrobe-ledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleRepository 销售单数据访问接口
type SaleRepository interface {
	Create(sale *models.Sale) error
	GetByID(id string) (*models.Sale, error)
	GetByIDForUpdate(id string) (*models.Sale, error)
	List(filter SaleListFilter) ([]models.Sale, int64, error)
	CountByNoPrefix(prefix string) (int64, error)
	SumSoldQtyByVariant(saleID string) (map[string]int, error)
	DeleteItems(saleID string) (int64, error)
	Delete(id string) (int64, error)
	WithTx(tx *gorm.DB) SaleRepository
}

// GormSaleRepository GORM 实现
type GormSaleRepository struct {
	db *gorm.DB
}

// NewSaleRepository 创建销售单仓库
func NewSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSaleRepository) WithTx(tx *gorm.DB) SaleRepository {
	if tx == nil {
		return r
	}
	return &GormSaleRepository{db: tx}
}

// Create 创建销售单及明细
func (r *GormSaleRepository) Create(sale *models.Sale) error {
	return r.db.Create(sale).Error
}

// GetByID 获取销售单（含明细、变体、款式）
func (r *GormSaleRepository) GetByID(id string) (*models.Sale, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var sale models.Sale
	if err := r.db.Preload("Items.Variant.Product").Where("id = ?", id).First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sale, nil
}

// GetByIDForUpdate 加锁获取销售单（不含关联）
func (r *GormSaleRepository) GetByIDForUpdate(id string) (*models.Sale, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var sale models.Sale
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sale, nil
}

// List 销售单列表，按销售时间倒序
func (r *GormSaleRepository) List(filter SaleListFilter) ([]models.Sale, int64, error) {
	query := r.db.Model(&models.Sale{})
	if filter.From != nil {
		query = query.Where("sold_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("sold_at <= ?", *filter.To)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"sale_no", "note"})
		query = query.Where(condition, repeatLikeArgs("%"+keyword+"%", argCount)...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sales []models.Sale
	query = applyPagination(query.Preload("Items.Variant.Product"), filter.Page, filter.PageSize)
	if err := query.Order("sold_at DESC, sale_no DESC").Find(&sales).Error; err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

// CountByNoPrefix 统计同一前缀（同类型同日）的单据数量
func (r *GormSaleRepository) CountByNoPrefix(prefix string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Sale{}).Where("sale_no LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumSoldQtyByVariant 按变体汇总某销售单的售出数量
func (r *GormSaleRepository) SumSoldQtyByVariant(saleID string) (map[string]int, error) {
	var rows []variantQtyRow
	if err := r.db.Model(&models.SaleItem{}).
		Select("variant_id, COALESCE(SUM(qty), 0) AS qty").
		Where("sale_id = ?", saleID).
		Group("variant_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[string]int, len(rows))
	for _, row := range rows {
		result[row.VariantID] = row.Qty
	}
	return result, nil
}

// DeleteItems 删除销售明细
func (r *GormSaleRepository) DeleteItems(saleID string) (int64, error) {
	result := r.db.Where("sale_id = ?", saleID).Delete(&models.SaleItem{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Delete 删除销售单
func (r *GormSaleRepository) Delete(id string) (int64, error) {
	result := r.db.Where("id = ?", id).Delete(&models.Sale{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
