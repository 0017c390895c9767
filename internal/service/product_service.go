package service

import (
	"context"
	"strings"
	"time"

	"github.com/wardrobe-ledger/internal/logger"
	"github.com/wardrobe-ledger/internal/models"
	"github.com/wardrobe-ledger/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductService 款式业务服务
type ProductService struct {
	repo         repository.ProductRepository
	categoryRepo repository.CategoryRepository
	movementRepo repository.MovementRepository
	notifier     *StockNotifier
	location     *time.Location
}

// NewProductService 创建款式服务
func NewProductService(
	repo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	movementRepo repository.MovementRepository,
	notifier *StockNotifier,
	location *time.Location,
) *ProductService {
	if location == nil {
		location = time.Local
	}
	return &ProductService{
		repo:         repo,
		categoryRepo: categoryRepo,
		movementRepo: movementRepo,
		notifier:     notifier,
		location:     location,
	}
}

// ProductVariantInput 建档时的变体
type ProductVariantInput struct {
	Color     string
	Size      string
	Qty       int
	CostPrice decimal.Decimal
	SalePrice decimal.Decimal
	SKU       string
}

// CreateProductInput 创建款式输入
type CreateProductInput struct {
	Name       string
	BaseCode   string
	CategoryID *string
	Tags       []string
	ImageURL   *string
	Variants   []ProductVariantInput
}

// ProductListInput 款式列表查询；DeletedFrom / DeletedTo 为日期，按配置时区取整天
type ProductListInput struct {
	Page        int
	PageSize    int
	Deleted     string
	Keyword     string
	CategoryID  string
	DeletedFrom *time.Time
	DeletedTo   *time.Time
}

// ProductDetail 款式详情，附带各变体当前库存
type ProductDetail struct {
	*models.Product
	Quantities map[string]int `json:"quantities"`
	TotalQty   int            `json:"total_qty"`
}

// ListProducts 款式列表（含变体）
func (s *ProductService) ListProducts(ctx context.Context, input ProductListInput) ([]models.Product, int64, error) {
	page, pageSize := normalizePagination(input.Page, input.PageSize)
	filter := repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		Deleted:      input.Deleted,
		Keyword:      input.Keyword,
		CategoryID:   input.CategoryID,
		WithVariants: true,
	}
	if input.DeletedFrom != nil {
		from := startOfDay(*input.DeletedFrom, s.location).UTC()
		filter.DeletedFrom = &from
	}
	if input.DeletedTo != nil {
		to := endOfDay(*input.DeletedTo, s.location).UTC()
		filter.DeletedTo = &to
	}
	if filter.DeletedFrom != nil && filter.DeletedTo != nil && filter.DeletedFrom.After(*filter.DeletedTo) {
		return nil, 0, ErrInvalidDateRange
	}
	return s.repo.List(filter)
}

// GetProduct 款式详情（含已删除）
func (s *ProductService) GetProduct(ctx context.Context, id string) (*ProductDetail, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	quantities, err := currentQuantities(s.movementRepo, product.Variants)
	if err != nil {
		return nil, err
	}
	detail := &ProductDetail{Product: product, Quantities: quantities}
	for _, qty := range quantities {
		detail.TotalQty += qty
	}
	return detail, nil
}

// normalizeProductVariants 过滤颜色或尺码为空的行，同一 颜色+尺码 合并
func normalizeProductVariants(baseCode string, inputs []ProductVariantInput) ([]models.Variant, error) {
	index := make(map[string]int)
	variants := make([]models.Variant, 0, len(inputs))
	for _, input := range inputs {
		color := strings.TrimSpace(input.Color)
		size := strings.TrimSpace(input.Size)
		if color == "" || size == "" {
			continue
		}
		if input.Qty < 0 {
			return nil, ErrInvalidQty
		}
		if input.CostPrice.IsNegative() || input.SalePrice.IsNegative() {
			return nil, ErrInvalidPrice
		}
		sku := strings.TrimSpace(input.SKU)
		if sku == "" {
			sku = models.BuildSKU(baseCode, color, size)
		}
		key := color + "__" + size
		if idx, ok := index[key]; ok {
			variants[idx].BaseQty += input.Qty
			variants[idx].CostPrice = models.NewCostFromDecimal(input.CostPrice)
			variants[idx].SalePrice = models.NewMoneyFromDecimal(input.SalePrice)
			variants[idx].SKU = sku
			continue
		}
		index[key] = len(variants)
		variants = append(variants, models.Variant{
			Color:     color,
			Size:      size,
			BaseQty:   input.Qty,
			CostPrice: models.NewCostFromDecimal(input.CostPrice),
			SalePrice: models.NewMoneyFromDecimal(input.SalePrice),
			SKU:       sku,
		})
	}
	if len(variants) == 0 {
		return nil, ErrProductVariantsRequired
	}
	return variants, nil
}

// CreateProduct 建档：款式与变体在同一事务内写入，变体数量记为期初数量
func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	baseCode := strings.TrimSpace(input.BaseCode)
	if name == "" || baseCode == "" {
		return nil, ErrProductInvalid
	}
	variants, err := normalizeProductVariants(baseCode, input.Variants)
	if err != nil {
		return nil, err
	}

	var categoryID *string
	if input.CategoryID != nil && strings.TrimSpace(*input.CategoryID) != "" {
		id := strings.TrimSpace(*input.CategoryID)
		category, err := s.categoryRepo.GetByID(id)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return nil, ErrCategoryNotFound
		}
		categoryID = &id
	}

	tags := make(models.StringArray, 0, len(input.Tags))
	for _, tag := range input.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	product := &models.Product{
		Name:       name,
		BaseCode:   baseCode,
		CategoryID: categoryID,
		Tags:       tags,
		ImageURL:   normalizeNote(derefString(input.ImageURL)),
		Variants:   variants,
	}
	err = s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		count, err := repo.CountByBaseCode(baseCode, nil)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrProductBaseCodeExists
		}
		return repo.Create(product)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrProductBaseCodeExists
		}
		return nil, err
	}

	logger.Infow("product_created",
		"product_id", product.ID,
		"base_code", product.BaseCode,
		"variants", len(product.Variants),
	)
	variantIDs := make([]string, 0, len(product.Variants))
	for _, variant := range product.Variants {
		if variant.BaseQty != 0 {
			variantIDs = append(variantIDs, variant.ID)
		}
	}
	s.notifier.Notify(ctx, StockChangeProduct, product.ID, variantIDs)
	return product, nil
}

// SetProductDeleted 软删除或恢复款式
func (s *ProductService) SetProductDeleted(ctx context.Context, id string, deleted bool) (*models.Product, error) {
	rows, err := s.repo.SetDeleted(id, deleted, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrProductNotFound
	}
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	logger.Infow("product_deleted_flag_changed", "product_id", id, "deleted", deleted)

	variantIDs := make([]string, 0, len(product.Variants))
	for _, variant := range product.Variants {
		variantIDs = append(variantIDs, variant.ID)
	}
	s.notifier.Notify(ctx, StockChangeProduct, product.ID, variantIDs)
	return product, nil
}

// DeleteProduct 删除款式（软删除）
func (s *ProductService) DeleteProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.SetProductDeleted(ctx, id, true)
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

func endOfDay(t time.Time, loc *time.Location) time.Time {
	return startOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Millisecond)
}
