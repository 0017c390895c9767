package models

import (
	"time"

	"gorm.io/gorm"
)

// Category 商品分类
type Category struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`              // 主键
	Name      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"` // 分类名称
	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`       // 是否启用（删除即停用）
	CreatedAt time.Time `gorm:"index" json:"created_at"`                            // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                         // 更新时间
}

// TableName 指定表名
func (Category) TableName() string {
	return "categories"
}

// BeforeCreate 生成主键
func (c *Category) BeforeCreate(_ *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
