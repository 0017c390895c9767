package repository

import (
	"errors"
	"strings"

	"github.com/wardrobe-ledger/internal/models"

	"gorm.io/gorm"
)

// DictionaryRepository 分类、尺码这类只有名称与启用状态的字典表
type DictionaryRepository[T any] interface {
	List(activeOnly bool) ([]T, error)
	GetByID(id string) (*T, error)
	Create(entry *T) error
	Update(id string, fields map[string]interface{}) error
	CountByName(name, excludeID string) (int64, error)
}

type (
	CategoryRepository = DictionaryRepository[models.Category]
	SizeRepository     = DictionaryRepository[models.Size]
)

// GormDictionaryRepository GORM 实现，表名取自 T 的 TableName
type GormDictionaryRepository[T any] struct {
	db *gorm.DB
}

// NewDictionaryRepository 创建字典仓库
func NewDictionaryRepository[T any](db *gorm.DB) *GormDictionaryRepository[T] {
	return &GormDictionaryRepository[T]{db: db}
}

// NewCategoryRepository 分类仓库
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return NewDictionaryRepository[models.Category](db)
}

// NewSizeRepository 尺码仓库
func NewSizeRepository(db *gorm.DB) SizeRepository {
	return NewDictionaryRepository[models.Size](db)
}

// List 按创建顺序返回，尺码因此保持 S、M、L 的录入顺序
func (r *GormDictionaryRepository[T]) List(activeOnly bool) ([]T, error) {
	entries := make([]T, 0)
	query := r.db.Model(new(T))
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("created_at ASC, name ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// GetByID 不存在返回 nil, nil
func (r *GormDictionaryRepository[T]) GetByID(id string) (*T, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	entry := new(T)
	if err := r.db.Where("id = ?", id).First(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

func (r *GormDictionaryRepository[T]) Create(entry *T) error {
	return r.db.Create(entry).Error
}

// Update 按列更新，map 形式保证 is_active=false 也会写入
func (r *GormDictionaryRepository[T]) Update(id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.Model(new(T)).Where("id = ?", id).Updates(fields).Error
}

// CountByName 统计同名记录，excludeID 非空时排除自身
func (r *GormDictionaryRepository[T]) CountByName(name, excludeID string) (int64, error) {
	var count int64
	query := r.db.Model(new(T)).Where("name = ?", name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
