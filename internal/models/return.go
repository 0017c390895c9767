package models

import (
	"time"

	"gorm.io/gorm"
)

// Return 退货单，必须关联原销售单
type Return struct {
	ID          string       `gorm:"primaryKey;type:varchar(36)" json:"id"`                     // 主键
	SaleID      string       `gorm:"type:varchar(36);not null;index" json:"sale_id"`            // 原销售单
	ReturnNo    string       `gorm:"type:varchar(32);uniqueIndex;not null" json:"return_no"`    // 退货单号 RYYYYMMDD-NNNN
	ReturnedAt  time.Time    `gorm:"not null;index" json:"returned_at"`                         // 退货时间
	TotalAmount Money        `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 退款合计
	Note        *string      `gorm:"type:varchar(500)" json:"note"`                             // 备注
	CreatedAt   time.Time    `json:"created_at"`                                                // 创建时间
	Items       []ReturnItem `gorm:"foreignKey:ReturnID" json:"items,omitempty"`                // 明细

	Sale *Sale `gorm:"foreignKey:SaleID" json:"sale,omitempty"`
}

// TableName 指定表名
func (Return) TableName() string {
	return "returns"
}

// BeforeCreate 生成主键
func (r *Return) BeforeCreate(_ *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// ReturnItem 退货明细
type ReturnItem struct {
	ID        string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ReturnID  string `gorm:"type:varchar(36);not null;index" json:"return_id"`
	VariantID string `gorm:"type:varchar(36);not null;index" json:"variant_id"`
	Qty       int    `gorm:"not null" json:"qty"`
	UnitPrice Money  `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`
	LineTotal Money  `gorm:"type:decimal(20,2);not null;default:0" json:"line_total"`

	Variant *Variant `gorm:"foreignKey:VariantID" json:"variant,omitempty"`
}

// TableName 指定表名
func (ReturnItem) TableName() string {
	return "return_items"
}

// BeforeCreate 生成主键
func (i *ReturnItem) BeforeCreate(_ *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
