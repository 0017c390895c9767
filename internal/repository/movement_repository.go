package repository

import (
	"strings"

	"github.com/wardrobe-ledger/internal/models"

	"gorm.io/gorm"
)

// MovementRepository 库存流水数据访问接口
type MovementRepository interface {
	Create(movement *models.StockMovement) error
	CreateBatch(movements []models.StockMovement) error
	SumQtyByVariantIDs(variantIDs []string) (map[string]int, error)
	SumQtyAll() (map[string]int, error)
	List(filter MovementListFilter) ([]models.StockMovement, int64, error)
	DeleteBySaleID(saleID string) (int64, error)
	WithTx(tx *gorm.DB) MovementRepository
}

// GormMovementRepository GORM 实现
type GormMovementRepository struct {
	db *gorm.DB
}

// NewMovementRepository 创建流水仓库
func NewMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// WithTx 绑定事务
func (r *GormMovementRepository) WithTx(tx *gorm.DB) MovementRepository {
	if tx == nil {
		return r
	}
	return &GormMovementRepository{db: tx}
}

// Create 追加一条流水
func (r *GormMovementRepository) Create(movement *models.StockMovement) error {
	return r.db.Create(movement).Error
}

// CreateBatch 批量追加流水
func (r *GormMovementRepository) CreateBatch(movements []models.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return r.db.Create(&movements).Error
}

type variantQtyRow struct {
	VariantID string
	Qty       int
}

// SumQtyByVariantIDs 一次查询汇总多个变体的流水数量
func (r *GormMovementRepository) SumQtyByVariantIDs(variantIDs []string) (map[string]int, error) {
	result := make(map[string]int, len(variantIDs))
	if len(variantIDs) == 0 {
		return result, nil
	}
	var rows []variantQtyRow
	if err := r.db.Model(&models.StockMovement{}).
		Select("variant_id, COALESCE(SUM(qty), 0) AS qty").
		Where("variant_id IN ?", variantIDs).
		Group("variant_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.VariantID] = row.Qty
	}
	return result, nil
}

// SumQtyAll 汇总全部变体的流水数量
func (r *GormMovementRepository) SumQtyAll() (map[string]int, error) {
	var rows []variantQtyRow
	if err := r.db.Model(&models.StockMovement{}).
		Select("variant_id, COALESCE(SUM(qty), 0) AS qty").
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

// List 流水列表，新的在前
func (r *GormMovementRepository) List(filter MovementListFilter) ([]models.StockMovement, int64, error) {
	query := r.db.Model(&models.StockMovement{})
	if variantID := strings.TrimSpace(filter.VariantID); variantID != "" {
		query = query.Where("variant_id = ?", variantID)
	}
	if movementType := strings.ToUpper(strings.TrimSpace(filter.Type)); movementType != "" {
		query = query.Where("type = ?", movementType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var movements []models.StockMovement
	query = applyPagination(query.Preload("Variant.Product"), filter.Page, filter.PageSize)
	if err := query.Order("created_at DESC, id DESC").Find(&movements).Error; err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

// DeleteBySaleID 删除销售单关联的流水
func (r *GormMovementRepository) DeleteBySaleID(saleID string) (int64, error) {
	result := r.db.Where("sale_id = ?", saleID).Delete(&models.StockMovement{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
