package models

import (
	"time"

	"gorm.io/gorm"
)

// Operator 门店操作员（店主 / 店员）
type Operator struct {
	ID                 string     `gorm:"primaryKey;type:varchar(36)" json:"id"`                       // 主键
	Username           string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`       // 登录账号
	DisplayName        string     `gorm:"type:varchar(100);not null;default:''" json:"display_name"`   // 显示名称
	PasswordHash       string     `gorm:"not null" json:"-"`                                           // 密码哈希（不返回给前端）
	Role               string     `gorm:"type:varchar(20);not null;default:'clerk';index" json:"role"` // 角色 owner / clerk
	IsActive           bool       `gorm:"not null;default:true" json:"is_active"`                      // 是否启用
	TokenVersion       uint64     `gorm:"not null;default:0" json:"-"`                                 // Token 版本（用于全量失效）
	TokenInvalidBefore *time.Time `json:"-"`                                                           // 该时间点前签发的 Token 失效
	LastLoginAt        *time.Time `json:"last_login_at"`                                               // 最后登录时间
	CreatedAt          time.Time  `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt          time.Time  `json:"updated_at"`                                                  // 更新时间
}

// TableName 指定表名
func (Operator) TableName() string {
	return "operators"
}

// BeforeCreate 生成主键
func (o *Operator) BeforeCreate(_ *gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
