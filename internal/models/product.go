package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 款式（同一款式下按颜色、尺码拆分为多个变体）
type Product struct {
	ID         string      `gorm:"primaryKey;type:varchar(36)" json:"id"`                  // 主键
	Name       string      `gorm:"type:varchar(200);not null;index" json:"name"`           // 款式名称
	BaseCode   string      `gorm:"type:varchar(64);uniqueIndex;not null" json:"base_code"` // 款号（SKU 前缀）
	CategoryID *string     `gorm:"type:varchar(36);index" json:"category_id"`              // 分类ID（可为空）
	Tags       StringArray `gorm:"type:json" json:"tags"`                                  // 标签
	ImageURL   *string     `gorm:"type:varchar(500)" json:"image_url"`                     // 图片地址
	IsDeleted  bool        `gorm:"not null;default:false;index" json:"is_deleted"`         // 是否已删除（软删除）
	DeletedAt  *time.Time  `gorm:"index" json:"deleted_at"`                                // 删除时间
	CreatedAt  time.Time   `gorm:"index" json:"created_at"`                                // 创建时间
	UpdatedAt  time.Time   `json:"updated_at"`                                             // 更新时间

	// 关联
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 分类信息
	Variants []Variant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`  // 变体列表
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// BeforeCreate 生成主键
func (p *Product) BeforeCreate(_ *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
