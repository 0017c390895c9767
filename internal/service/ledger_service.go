package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/wardrobe-ledger/internal/cache"
	"github.com/wardrobe-ledger/internal/constants"
	"github.com/wardrobe-ledger/internal/logger"
	"github.com/wardrobe-ledger/internal/models"
	"github.com/wardrobe-ledger/internal/repository"

	"github.com/shopspring/decimal"
)

// LedgerService 库存账本：当前数量 = 期初数量 + 流水合计
type LedgerService struct {
	productRepo  repository.ProductRepository
	variantRepo  repository.VariantRepository
	movementRepo repository.MovementRepository
	summaryTTL   time.Duration
}

// NewLedgerService 创建库存账本服务
func NewLedgerService(productRepo repository.ProductRepository, variantRepo repository.VariantRepository, movementRepo repository.MovementRepository, summaryTTL time.Duration) *LedgerService {
	return &LedgerService{
		productRepo:  productRepo,
		variantRepo:  variantRepo,
		movementRepo: movementRepo,
		summaryTTL:   summaryTTL,
	}
}

// StockSummaryFilter 库存汇总筛选
type StockSummaryFilter struct {
	CategoryID string
	Keyword    string
}

// VariantStock 变体库存
type VariantStock struct {
	VariantID  string       `json:"variant_id"`
	Color      string       `json:"color"`
	Size       string       `json:"size"`
	SKU        string       `json:"sku"`
	BaseQty    int          `json:"base_qty"`
	CurrentQty int          `json:"current_qty"`
	CostPrice  models.Cost  `json:"cost_price"`
	SalePrice  models.Money `json:"sale_price"`
	TotalCost  models.Money `json:"total_cost"`
}

// ProductStock 款式库存汇总
type ProductStock struct {
	ProductID    string             `json:"product_id"`
	Name         string             `json:"name"`
	BaseCode     string             `json:"base_code"`
	CategoryID   *string            `json:"category_id"`
	CategoryName string             `json:"category_name"`
	Tags         models.StringArray `json:"tags"`
	ImageURL     *string            `json:"image_url"`
	TotalQty     int                `json:"total_qty"`
	TotalCost    models.Money       `json:"total_cost"`
	Variants     []VariantStock     `json:"variants"`
}

// CategoryStock 分类库存汇总
type CategoryStock struct {
	CategoryID   string       `json:"category_id"`
	CategoryName string       `json:"category_name"`
	TotalQty     int          `json:"total_qty"`
	TotalCost    models.Money `json:"total_cost"`
	ProductCount int          `json:"product_count"`
	VariantCount int          `json:"variant_count"`
}

// StockTotals 库存总计；款式数、变体数只统计有库存的
type StockTotals struct {
	TotalQty     int          `json:"total_qty"`
	TotalCost    models.Money `json:"total_cost"`
	ProductCount int          `json:"product_count"`
	VariantCount int          `json:"variant_count"`
}

// StockSummary 库存汇总
type StockSummary struct {
	Totals     StockTotals     `json:"totals"`
	Categories []CategoryStock `json:"categories"`
	Products   []ProductStock  `json:"products"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CurrentQuantity 单个变体当前库存
func (s *LedgerService) CurrentQuantity(ctx context.Context, variantID string) (int, error) {
	variant, err := s.variantRepo.GetByID(variantID)
	if err != nil {
		return 0, err
	}
	if variant == nil {
		return 0, ErrVariantNotFound
	}
	quantities, err := currentQuantities(s.movementRepo, []models.Variant{*variant})
	if err != nil {
		return 0, err
	}
	return quantities[variant.ID], nil
}

// CurrentQuantities 批量获取变体当前库存，不存在的变体不出现在结果中
func (s *LedgerService) CurrentQuantities(ctx context.Context, variantIDs []string) (map[string]int, error) {
	ids := uniqueSortedIDs(variantIDs)
	if len(ids) == 0 {
		return map[string]int{}, nil
	}
	variants, err := s.variantRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	return currentQuantities(s.movementRepo, variants)
}

// currentQuantities 一次聚合流水后与期初数量合并
func currentQuantities(movementRepo repository.MovementRepository, variants []models.Variant) (map[string]int, error) {
	result := make(map[string]int, len(variants))
	if len(variants) == 0 {
		return result, nil
	}
	ids := make([]string, 0, len(variants))
	for _, variant := range variants {
		ids = append(ids, variant.ID)
	}
	sums, err := movementRepo.SumQtyByVariantIDs(ids)
	if err != nil {
		return nil, err
	}
	for _, variant := range variants {
		result[variant.ID] = variant.BaseQty + sums[variant.ID]
	}
	return result, nil
}

// StockSummary 库存汇总（款式、分类、总计）
func (s *LedgerService) StockSummary(ctx context.Context, filter StockSummaryFilter) (*StockSummary, error) {
	// 版本号只在读库前取一次，读写缓存都用它
	useCache := s.summaryTTL > 0 && cache.Enabled()
	var version int64
	if useCache {
		var err error
		if version, err = cache.StockVersion(ctx); err != nil {
			logger.Warnw("stock_summary_cache_version_failed", "error", err)
			useCache = false
		}
	}
	if useCache {
		var cached StockSummary
		if hit, err := cache.GetStockSummary(ctx, version, filter.CategoryID, filter.Keyword, &cached); err != nil {
			logger.Warnw("stock_summary_cache_read_failed", "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	products, err := s.productRepo.ListForSummary(repository.StockSummaryFilter{
		CategoryID: filter.CategoryID,
		Keyword:    filter.Keyword,
	})
	if err != nil {
		return nil, err
	}
	variants := make([]models.Variant, 0)
	for _, product := range products {
		variants = append(variants, product.Variants...)
	}
	quantities, err := currentQuantities(s.movementRepo, variants)
	if err != nil {
		return nil, err
	}

	summary := BuildStockSummary(products, quantities, time.Now())
	if useCache {
		if err := cache.SetStockSummary(ctx, version, filter.CategoryID, filter.Keyword, summary, s.summaryTTL); err != nil {
			logger.Warnw("stock_summary_cache_write_failed", "error", err)
		}
	}
	return summary, nil
}

// BuildStockSummary 按当前数量汇总款式与分类
func BuildStockSummary(products []models.Product, quantities map[string]int, now time.Time) *StockSummary {
	summary := &StockSummary{
		Categories: make([]CategoryStock, 0),
		Products:   make([]ProductStock, 0, len(products)),
		UpdatedAt:  now,
	}
	totalCost := decimal.Zero
	categoryIndex := make(map[string]int)
	categoryCost := make(map[string]decimal.Decimal)

	for _, product := range products {
		row := ProductStock{
			ProductID:  product.ID,
			Name:       product.Name,
			BaseCode:   product.BaseCode,
			CategoryID: product.CategoryID,
			Tags:       product.Tags,
			ImageURL:   product.ImageURL,
			Variants:   make([]VariantStock, 0, len(product.Variants)),
		}
		if product.Category != nil {
			row.CategoryName = product.Category.Name
		}
		// 分类记录缺失时与无分类同名展示
		if strings.TrimSpace(row.CategoryName) == "" {
			row.CategoryName = constants.UncategorizedName
		}
		productCost := decimal.Zero
		stockedVariants := 0
		for _, variant := range product.Variants {
			qty := quantities[variant.ID]
			cost := decimal.NewFromInt(int64(qty)).Mul(variant.CostPrice.Decimal)
			row.Variants = append(row.Variants, VariantStock{
				VariantID:  variant.ID,
				Color:      variant.Color,
				Size:       variant.Size,
				SKU:        variant.SKU,
				BaseQty:    variant.BaseQty,
				CurrentQty: qty,
				CostPrice:  variant.CostPrice,
				SalePrice:  variant.SalePrice,
				TotalCost:  models.NewMoneyFromDecimal(cost),
			})
			row.TotalQty += qty
			productCost = productCost.Add(cost)
			if qty > 0 {
				stockedVariants++
			}
		}
		row.TotalCost = models.NewMoneyFromDecimal(productCost)
		summary.Products = append(summary.Products, row)

		summary.Totals.TotalQty += row.TotalQty
		summary.Totals.VariantCount += stockedVariants
		totalCost = totalCost.Add(productCost)

		categoryID := constants.UncategorizedID
		categoryName := constants.UncategorizedName
		if product.CategoryID != nil && strings.TrimSpace(*product.CategoryID) != "" {
			categoryID = *product.CategoryID
			categoryName = row.CategoryName
		}
		idx, ok := categoryIndex[categoryID]
		if !ok {
			summary.Categories = append(summary.Categories, CategoryStock{CategoryID: categoryID, CategoryName: categoryName})
			idx = len(summary.Categories) - 1
			categoryIndex[categoryID] = idx
		}
		category := &summary.Categories[idx]
		category.TotalQty += row.TotalQty
		category.VariantCount += stockedVariants
		categoryCost[categoryID] = categoryCost[categoryID].Add(productCost)
		if row.TotalQty > 0 {
			category.ProductCount++
			summary.Totals.ProductCount++
		}
	}

	for i := range summary.Categories {
		summary.Categories[i].TotalCost = models.NewMoneyFromDecimal(categoryCost[summary.Categories[i].CategoryID])
	}
	sort.SliceStable(summary.Categories, func(i, j int) bool {
		return summary.Categories[i].TotalQty > summary.Categories[j].TotalQty
	})
	summary.Totals.TotalCost = models.NewMoneyFromDecimal(totalCost)
	return summary
}
