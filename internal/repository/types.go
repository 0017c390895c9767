package repository

import "time"

// ProductListFilter 查询款式列表的过滤条件
type ProductListFilter struct {
	Page         int
	PageSize     int
	Deleted      string // false / true / all
	Keyword      string
	CategoryID   string
	DeletedFrom  *time.Time
	DeletedTo    *time.Time
	WithVariants bool
}

// StockSummaryFilter 库存汇总的过滤条件
type StockSummaryFilter struct {
	CategoryID string
	Keyword    string
}

// MovementListFilter 查询库存流水的过滤条件
type MovementListFilter struct {
	Page      int
	PageSize  int
	VariantID string
	Type      string
}

// SaleListFilter 查询销售单的过滤条件
type SaleListFilter struct {
	Page     int
	PageSize int
	From     *time.Time
	To       *time.Time
	Keyword  string
}

// ReturnListFilter 查询退货单的过滤条件
type ReturnListFilter struct {
	Page     int
	PageSize int
	SaleID   string
	From     *time.Time
	To       *time.Time
}

// StockAlertListFilter 查询低库存提醒的过滤条件
type StockAlertListFilter struct {
	Page            int
	PageSize        int
	IncludeResolved bool
}
