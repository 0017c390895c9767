package models

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Variant 款式的颜色尺码变体，库存按变体计
type Variant struct {
	ID        string `gorm:"primaryKey;type:varchar(36)" json:"id"`                                                             // 主键
	ProductID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_variant_product_color_size,priority:1" json:"product_id"` // 款式ID
	Color     string `gorm:"type:varchar(50);not null;uniqueIndex:idx_variant_product_color_size,priority:2" json:"color"`      // 颜色
	Size      string `gorm:"type:varchar(50);not null;uniqueIndex:idx_variant_product_color_size,priority:3" json:"size"`       // 尺码
	BaseQty   int    `gorm:"column:base_qty;not null;default:0" json:"base_qty"`                                                // 期初数量（建档后不再修改）
	CostPrice Cost   `gorm:"type:decimal(20,4);not null;default:0" json:"cost_price"`                                           // 加权平均成本
	SalePrice Money  `gorm:"type:decimal(20,2);not null;default:0" json:"sale_price"`                                           // 零售价
	SKU       string `gorm:"column:sku;type:varchar(200);not null;index" json:"sku"`                                            // SKU 编码

	// 关联
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName 指定表名
func (Variant) TableName() string {
	return "variants"
}

// BeforeCreate 生成主键
func (v *Variant) BeforeCreate(_ *gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

// BuildSKU 按 款号-颜色-尺码 生成 SKU
func BuildSKU(baseCode, color, size string) string {
	return fmt.Sprintf("%s-%s-%s", strings.TrimSpace(baseCode), strings.TrimSpace(color), strings.TrimSpace(size))
}
