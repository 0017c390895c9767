package models

import (
	"time"

	"gorm.io/gorm"
)

// Sale 销售单
type Sale struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" json:"id"`                     // 主键
	SaleNo      string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"sale_no"`      // 销售单号 SYYYYMMDD-NNNN
	SoldAt      time.Time  `gorm:"not null;index" json:"sold_at"`                             // 销售时间
	TotalAmount Money      `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 合计金额
	Note        *string    `gorm:"type:varchar(500)" json:"note"`                             // 备注
	CreatedAt   time.Time  `json:"created_at"`                                                // 创建时间
	Items       []SaleItem `gorm:"foreignKey:SaleID" json:"items,omitempty"`                  // 明细
}

// TableName 指定表名
func (Sale) TableName() string {
	return "sales"
}

// BeforeCreate 生成主键
func (s *Sale) BeforeCreate(_ *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// SaleItem 销售明细
type SaleItem struct {
	ID        string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SaleID    string `gorm:"type:varchar(36);not null;index" json:"sale_id"`
	VariantID string `gorm:"type:varchar(36);not null;index" json:"variant_id"`
	Qty       int    `gorm:"not null" json:"qty"`
	UnitPrice Money  `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`
	LineTotal Money  `gorm:"type:decimal(20,2);not null;default:0" json:"line_total"`

	Variant *Variant `gorm:"foreignKey:VariantID" json:"variant,omitempty"`
}

// TableName 指定表名
func (SaleItem) TableName() string {
	return "sale_items"
}

// BeforeCreate 生成主键
func (i *SaleItem) BeforeCreate(_ *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
