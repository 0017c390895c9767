package models

import (
	"time"

	"gorm.io/gorm"
)

// StockAlert 低库存提醒，由异步任务在库存变动后写入
type StockAlert struct {
	ID         string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	VariantID  string     `gorm:"type:varchar(36);not null;index" json:"variant_id"`
	SKU        string     `gorm:"column:sku;type:varchar(200);not null" json:"sku"`
	Qty        int        `gorm:"not null" json:"qty"`
	Threshold  int        `gorm:"not null" json:"threshold"`
	Resolved   bool       `gorm:"not null;default:false;index" json:"resolved"` // 库存回升后自动标记
	ResolvedAt *time.Time `json:"resolved_at"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Variant *Variant `gorm:"foreignKey:VariantID" json:"variant,omitempty"`
}

// TableName 指定表名
func (StockAlert) TableName() string {
	return "stock_alerts"
}

// BeforeCreate 生成主键
func (a *StockAlert) BeforeCreate(_ *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
