package service

import (
	"context"
	"strings"

	"github.com/wardrobe-ledger/internal/models"
	"github.com/wardrobe-ledger/internal/repository"
)

// dictionaryErrors 每种字典各自的错误，便于 handler 返回对应文案
type dictionaryErrors struct {
	invalid  error
	exists   error
	notFound error
}

// DictionaryService 分类、尺码共用的维护逻辑：名称去空格后唯一，删除即停用
type DictionaryService[T any] struct {
	repo     repository.DictionaryRepository[T]
	newEntry func(name string) *T
	errs     dictionaryErrors
	// 名称进入库存汇总的字典才需要，改动后让汇总缓存失效
	notifier *StockNotifier
	reason   string
}

type (
	CategoryService = DictionaryService[models.Category]
	SizeService     = DictionaryService[models.Size]
)

// UpdateDictionaryInput nil 表示不修改
type UpdateDictionaryInput struct {
	Name     *string
	IsActive *bool
}

type (
	UpdateCategoryInput = UpdateDictionaryInput
	UpdateSizeInput     = UpdateDictionaryInput
)

// NewCategoryService 创建分类服务
func NewCategoryService(repo repository.CategoryRepository, notifier *StockNotifier) *CategoryService {
	return &CategoryService{
		repo: repo,
		newEntry: func(name string) *models.Category {
			return &models.Category{Name: name, IsActive: true}
		},
		errs:     dictionaryErrors{invalid: ErrCategoryInvalid, exists: ErrCategoryExists, notFound: ErrCategoryNotFound},
		notifier: notifier,
		reason:   StockChangeCategory,
	}
}

// NewSizeService 创建尺码服务
func NewSizeService(repo repository.SizeRepository) *SizeService {
	return &SizeService{
		repo: repo,
		newEntry: func(name string) *models.Size {
			return &models.Size{Name: name, IsActive: true}
		},
		errs: dictionaryErrors{invalid: ErrSizeInvalid, exists: ErrSizeExists, notFound: ErrSizeNotFound},
	}
}

func (s *DictionaryService[T]) List(activeOnly bool) ([]T, error) {
	return s.repo.List(activeOnly)
}

func (s *DictionaryService[T]) Create(name string) (*T, error) {
	name, err := s.uniqueName(name, "")
	if err != nil {
		return nil, err
	}
	entry := s.newEntry(name)
	if err := s.repo.Create(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *DictionaryService[T]) Update(ctx context.Context, id string, input UpdateDictionaryInput) (*T, error) {
	current, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, s.errs.notFound
	}

	fields := make(map[string]interface{}, 2)
	if input.Name != nil {
		name, err := s.uniqueName(*input.Name, id)
		if err != nil {
			return nil, err
		}
		fields["name"] = name
	}
	if input.IsActive != nil {
		fields["is_active"] = *input.IsActive
	}
	if len(fields) == 0 {
		return current, nil
	}
	if err := s.repo.Update(id, fields); err != nil {
		return nil, err
	}
	if s.reason != "" {
		s.notifier.Notify(ctx, s.reason, id, nil)
	}
	return s.repo.GetByID(id)
}

// Deactivate 删除即停用，已引用它的款式与变体不受影响
func (s *DictionaryService[T]) Deactivate(ctx context.Context, id string) (*T, error) {
	inactive := false
	return s.Update(ctx, id, UpdateDictionaryInput{IsActive: &inactive})
}

func (s *DictionaryService[T]) uniqueName(raw, excludeID string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", s.errs.invalid
	}
	count, err := s.repo.CountByName(name, excludeID)
	if err != nil {
		return "", err
	}
	if count > 0 {
		return "", s.errs.exists
	}
	return name, nil
}
