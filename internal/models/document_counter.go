package models

import "time"

// DocumentCounter 单据日序号计数器，按 (单据类型, 日期) 唯一
type DocumentCounter struct {
	DocType   string    `gorm:"primaryKey;type:varchar(20)" json:"doc_type"`
	DateKey   string    `gorm:"primaryKey;type:varchar(8)" json:"date_key"` // YYYYMMDD
	Seq       int       `gorm:"not null;default:0" json:"seq"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (DocumentCounter) TableName() string {
	return "document_counters"
}
