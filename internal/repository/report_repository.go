package repository

import (
	"time"

	"github.com/wardrobe-ledger/internal/models"

	"gorm.io/gorm"
)

// ReportRepository 报表明细查询接口
// 说明：只负责按时间范围取出明细行，聚合规则在服务层。
type ReportRepository interface {
	ListSaleLines(startAt, endAt time.Time) ([]ReportLineRow, error)
	ListReturnLines(startAt, endAt time.Time) ([]ReportLineRow, error)
}

// ReportLineRow 销售 / 退货明细原始行
type ReportLineRow struct {
	DocID       string
	OccurredAt  time.Time
	VariantID   string
	ProductID   string
	ProductName string
	BaseCode    string
	Color       string
	Size        string
	SKU         string
	Qty         int
	LineTotal   models.Money
	CostPrice   models.Cost
}

// GormReportRepository GORM 实现
type GormReportRepository struct {
	db *gorm.DB
}

// NewReportRepository 创建报表仓库
func NewReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

// ListSaleLines 时间范围内（含两端）的销售明细
func (r *GormReportRepository) ListSaleLines(startAt, endAt time.Time) ([]ReportLineRow, error) {
	var rows []ReportLineRow
	err := r.db.Model(&models.SaleItem{}).
		Select(`sales.id AS doc_id, sales.sold_at AS occurred_at,
			sale_items.variant_id AS variant_id, products.id AS product_id,
			products.name AS product_name, products.base_code AS base_code,
			variants.color AS color, variants.size AS size, variants.sku AS sku,
			sale_items.qty AS qty, sale_items.line_total AS line_total, variants.cost_price AS cost_price`).
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Joins("JOIN variants ON variants.id = sale_items.variant_id").
		Joins("JOIN products ON products.id = variants.product_id").
		Where("sales.sold_at >= ? AND sales.sold_at <= ?", startAt, endAt).
		Order("sales.sold_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListReturnLines 时间范围内（含两端）的退货明细
func (r *GormReportRepository) ListReturnLines(startAt, endAt time.Time) ([]ReportLineRow, error) {
	var rows []ReportLineRow
	err := r.db.Model(&models.ReturnItem{}).
		Select(`returns.id AS doc_id, returns.returned_at AS occurred_at,
			return_items.variant_id AS variant_id, products.id AS product_id,
			products.name AS product_name, products.base_code AS base_code,
			variants.color AS color, variants.size AS size, variants.sku AS sku,
			return_items.qty AS qty, return_items.line_total AS line_total, variants.cost_price AS cost_price`).
		Joins("JOIN returns ON returns.id = return_items.return_id").
		Joins("JOIN variants ON variants.id = return_items.variant_id").
		Joins("JOIN products ON products.id = variants.product_id").
		Where("returns.returned_at >= ? AND returns.returned_at <= ?", startAt, endAt).
		Order("returns.returned_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
