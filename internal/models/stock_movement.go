package models

import (
	"time"

	"gorm.io/gorm"
)

// StockMovement 库存流水，只追加不修改；仅随所属销售单一起删除
type StockMovement struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`             // 主键
	VariantID string    `gorm:"type:varchar(36);not null;index" json:"variant_id"` // 变体ID
	Type      string    `gorm:"type:varchar(10);not null;index" json:"type"`       // IN / OUT / RETURN / ADJUST
	Qty       int       `gorm:"not null" json:"qty"`                               // 带符号数量
	UnitCost  *Cost     `gorm:"type:decimal(20,4)" json:"unit_cost"`               // 入库单价（仅 IN）
	SaleID    *string   `gorm:"type:varchar(36);index" json:"sale_id,omitempty"`   // 关联销售单
	ReturnID  *string   `gorm:"type:varchar(36);index" json:"return_id,omitempty"` // 关联退货单
	Note      *string   `gorm:"type:varchar(500)" json:"note"`                     // 备注
	CreatedAt time.Time `gorm:"index" json:"created_at"`                           // 创建时间

	// 关联
	Variant *Variant `gorm:"foreignKey:VariantID" json:"variant,omitempty"`
}

// TableName 指定表名
func (StockMovement) TableName() string {
	return "stock_movements"
}

// BeforeCreate 生成主键
func (m *StockMovement) BeforeCreate(_ *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
