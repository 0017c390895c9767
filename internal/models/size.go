package models

import (
	"time"

	"gorm.io/gorm"
)

// Size 尺码字典
type Size struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Size) TableName() string {
	return "sizes"
}

// BeforeCreate 生成主键
func (s *Size) BeforeCreate(_ *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
