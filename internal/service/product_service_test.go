package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wardrobe-ledger/internal/constants"
	"github.com/wardrobe-ledger/internal/models"

	"github.com/shopspring/decimal"
)

func productVariant(color, size string, qty int, cost, price int64) ProductVariantInput {
	return ProductVariantInput{
		Color:     color,
		Size:      size,
		Qty:       qty,
		CostPrice: decimal.NewFromInt(cost),
		SalePrice: decimal.NewFromInt(price),
	}
}

func TestCreateProductMergesVariants(t *testing.T) {
	env := setupLedgerTest(t, constants.NumberingStrategyCounter)
	ctx := context.Background()

	product, err := env.products.CreateProduct(ctx, CreateProductInput{
		Name:     " 基础圆领T恤 ",
		BaseCode: " TX100 ",
		Tags:     []string{"夏季", " ", "基础款"},
		Variants: []ProductVariantInput{
			productVariant("黑", "M", 2, 20, 59),
			productVariant("黑", "M", 3, 22, 69),
			productVariant("白", "L", 1, 20, 59),
			productVariant("", "L", 9, 20, 59),
		},
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if product.Name != "基础圆领T恤" || product.BaseCode != "TX100" || len(product.Tags) != 2 {
		t.Fatalf("unexpected product %+v", product)
	}
	if len(product.Variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(product.Variants))
	}
	merged := product.Variants[0]
	if merged.BaseQty != 5 || merged.SKU != "TX100-黑-M" || merged.SalePrice.StringFixed(2) != "69.00" {
		t.Fatalf("unexpected merged variant %+v", merged)
	}

	detail, err := env.products.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if detail.TotalQty != 6 || detail.Quantities[merged.ID] != 5 {
		t.Fatalf("unexpected detail quantities %+v", detail.Quantities)
	}
}

func TestCreateProductValidation(t *testing.T) {
	env := setupLedgerTest(t, constants.NumberingStrategyCounter)
	ctx := context.Background()
	if _, err := env.products.CreateProduct(ctx, CreateProductInput{
		Name:     "已有款",
		BaseCode: "DUP1",
		Variants: []ProductVariantInput{productVariant("黑", "M", 1, 1, 2)},
	}); err != nil {
		t.Fatalf("seed product failed: %v", err)
	}
	missingCategory := "missing"

	cases := []struct {
		name  string
		input CreateProductInput
		want  error
	}{
		{name: "blank name", input: CreateProductInput{BaseCode: "X1", Variants: []ProductVariantInput{productVariant("黑", "M", 1, 1, 2)}}, want: ErrProductInvalid},
		{name: "blank code", input: CreateProductInput{Name: "x", Variants: []ProductVariantInput{productVariant("黑", "M", 1, 1, 2)}}, want: ErrProductInvalid},
		{name: "no variants", input: CreateProductInput{Name: "x", BaseCode: "X2", Variants: []ProductVariantInput{productVariant("", "M", 1, 1, 2)}}, want: ErrProductVariantsRequired},
		{name: "negative qty", input: CreateProductInput{Name: "x", BaseCode: "X3", Variants: []ProductVariantInput{productVariant("黑", "M", -1, 1, 2)}}, want: ErrInvalidQty},
		{name: "negative price", input: CreateProductInput{Name: "x", BaseCode: "X4", Variants: []ProductVariantInput{productVariant("黑", "M", 1, -1, 2)}}, want: ErrInvalidPrice},
		{name: "duplicate code", input: CreateProductInput{Name: "x", BaseCode: "DUP1", Variants: []ProductVariantInput{productVariant("黑", "M", 1, 1, 2)}}, want: ErrProductBaseCodeExists},
		{name: "unknown category", input: CreateProductInput{Name: "x", BaseCode: "X5", CategoryID: &missingCategory, Variants: []ProductVariantInput{productVariant("黑", "M", 1, 1, 2)}}, want: ErrCategoryNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.products.CreateProduct(ctx, tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSetProductDeletedAndList(t *testing.T) {
	env := setupLedgerTest(t, constants.NumberingStrategyCounter)
	ctx := context.Background()
	active := createTestProduct(t, env.db, "PL01", nil)
	removed := createTestProduct(t, env.db, "PL02", nil)
	createTestVariant(t, env.db, removed, "黑", "M", 1, 1)

	product, err := env.products.DeleteProduct(ctx, removed.ID)
	if err != nil {
		t.Fatalf("delete product failed: %v", err)
	}
	if !product.IsDeleted || product.DeletedAt == nil {
		t.Fatalf("expected soft deleted product, got %+v", product)
	}

	list, total, err := env.products.ListProducts(ctx, ProductListInput{})
	if err != nil {
		t.Fatalf("list products failed: %v", err)
	}
	if total != 1 || list[0].ID != active.ID {
		t.Fatalf("default list should hide deleted products, got total=%d", total)
	}

	today := time.Now()
	list, total, err = env.products.ListProducts(ctx, ProductListInput{
		Deleted:     constants.ProductDeletedFilterTrue,
		DeletedFrom: &today,
		DeletedTo:   &today,
	})
	if err != nil {
		t.Fatalf("list deleted failed: %v", err)
	}
	if total != 1 || list[0].ID != removed.ID || len(list[0].Variants) != 1 {
		t.Fatalf("unexpected deleted list total=%d", total)
	}

	_, total, err = env.products.ListProducts(ctx, ProductListInput{Deleted: constants.ProductDeletedFilterAll})
	if err != nil || total != 2 {
		t.Fatalf("expected 2 products with all filter, got total=%d err=%v", total, err)
	}

	restored, err := env.products.SetProductDeleted(ctx, removed.ID, false)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if restored.IsDeleted || restored.DeletedAt != nil {
		t.Fatalf("expected restored product, got %+v", restored)
	}

	if _, err := env.products.SetProductDeleted(ctx, "missing", true); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected product not found, got %v", err)
	}

	from := today.AddDate(0, 0, 1)
	if _, _, err := env.products.ListProducts(ctx, ProductListInput{
		Deleted:     constants.ProductDeletedFilterTrue,
		DeletedFrom: &from,
		DeletedTo:   &today,
	}); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected invalid date range, got %v", err)
	}
}

func TestCategoryAndSizeServices(t *testing.T) {
	env := setupLedgerTest(t, constants.NumberingStrategyCounter)
	ctx := context.Background()
	categories := NewCategoryService(repositoryCategory(env), NewStockNotifier(nil))

	created, err := categories.Create(" 外套 ")
	if err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	if created.Name != "外套" || !created.IsActive {
		t.Fatalf("unexpected category %+v", created)
	}
	if _, err := categories.Create("外套"); !errors.Is(err, ErrCategoryExists) {
		t.Fatalf("expected category exists, got %v", err)
	}
	if _, err := categories.Create("  "); !errors.Is(err, ErrCategoryInvalid) {
		t.Fatalf("expected category invalid, got %v", err)
	}
	blank := " "
	if _, err := categories.Update(ctx, created.ID, UpdateCategoryInput{Name: &blank}); !errors.Is(err, ErrCategoryInvalid) {
		t.Fatalf("expected category invalid on update, got %v", err)
	}
	deactivated, err := categories.Deactivate(ctx, created.ID)
	if err != nil || deactivated.IsActive {
		t.Fatalf("expected deactivated category, got %+v err=%v", deactivated, err)
	}
	active, err := categories.List(true)
	if err != nil || len(active) != 0 {
		t.Fatalf("expected no active category, got %d err=%v", len(active), err)
	}
	if _, err := categories.Deactivate(ctx, "missing"); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected category not found, got %v", err)
	}

	sizes := NewSizeService(repositorySize(env))
	size, err := sizes.Create("3XL")
	if err != nil {
		t.Fatalf("create size failed: %v", err)
	}
	if _, err := sizes.Create("3XL"); !errors.Is(err, ErrSizeExists) {
		t.Fatalf("expected size exists, got %v", err)
	}
	renamed := "4XL"
	updated, err := sizes.Update(ctx, size.ID, UpdateSizeInput{Name: &renamed})
	if err != nil || updated.Name != "4XL" {
		t.Fatalf("unexpected size update %+v err=%v", updated, err)
	}
}

func TestStockSummaryUsesCategoryName(t *testing.T) {
	env := setupLedgerTest(t, constants.NumberingStrategyCounter)
	category := models.Category{Name: "裤子", IsActive: true}
	if err := env.db.Create(&category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	product, err := env.products.CreateProduct(context.Background(), CreateProductInput{
		Name:       "直筒牛仔裤",
		BaseCode:   "KZ01",
		CategoryID: &category.ID,
		Variants:   []ProductVariantInput{productVariant("蓝", "30", 2, 80, 199)},
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	summary, err := env.ledger.StockSummary(context.Background(), StockSummaryFilter{CategoryID: category.ID})
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if len(summary.Products) != 1 || summary.Products[0].ProductID != product.ID || summary.Products[0].CategoryName != "裤子" {
		t.Fatalf("unexpected summary products %+v", summary.Products)
	}
}
