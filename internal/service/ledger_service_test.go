package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wardrobe-ledger/internal/constants"
	"github.com/wardrobe-ledger/internal/models"
)

func TestCurrentQuantitiesMatchesBaselinePlusMovements(t *testing.T) {
	env := setupLedgerTest(t, constants.NumberingStrategyCounter)
	ctx := context.Background()
	product := createTestProduct(t, env.db, "CQ01", nil)
	untouched := createTestVariant(t, env.db, product, "黑", "S", 4, 1)
	moved := createTestVariant(t, env.db, product, "黑", "M", 2, 1)

	if _, err := env.stock.ReceiveStock(ctx, ReceiveStockInput{VariantID: moved.ID, Qty: 6}); err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if _, err := env.sales.CreateSale(ctx, CreateSaleInput{Items: []DocumentItemInput{saleLine(moved.ID, 3, 9)}}); err != nil {
		t.Fatalf("sale failed: %v", err)
	}
	if _, err := env.stock.CreateMovement(ctx, CreateMovementInput{VariantID: moved.ID, Type: constants.MovementTypeAdjust, Qty: -1}); err != nil {
		t.Fatalf("adjust failed: %v", err)
	}

	quantities, err := env.ledger.CurrentQuantities(ctx, []string{untouched.ID, moved.ID, "missing", ""})
	if err != nil {
		t.Fatalf("current quantities failed: %v", err)
	}
	if len(quantities) != 2 {
		t.Fatalf("missing variants should be absent, got %+v", quantities)
	}
	if quantities[untouched.ID] != 4 {
		t.Fatalf("variant without movements should equal baseline, got %d", quantities[untouched.ID])
	}
	if quantities[moved.ID] != 2+6-3-1 {
		t.Fatalf("unexpected moved qty %d", quantities[moved.ID])
	}
	if _, err := env.ledger.CurrentQuantity(ctx, "missing"); !errors.Is(err, ErrVariantNotFound) {
		t.Fatalf("expected variant not found, got %v", err)
	}
}

func TestStockSummaryRollups(t *testing.T) {
	env := setupLedgerTest(t, constants.NumberingStrategyCounter)
	ctx := context.Background()

	tops := models.Category{Name: "上衣", IsActive: true}
	if err := env.db.Create(&tops).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	shirt := createTestProduct(t, env.db, "SM01", &tops.ID)
	createTestVariant(t, env.db, shirt, "黑", "M", 3, 2)
	createTestVariant(t, env.db, shirt, "黑", "L", 0, 5)
	tee := createTestProduct(t, env.db, "SM02", &tops.ID)
	createTestVariant(t, env.db, tee, "白", "M", 2, 1)
	loose := createTestProduct(t, env.db, "SM03", nil)
	createTestVariant(t, env.db, loose, "灰", "S", 1, 10)
	empty := createTestProduct(t, env.db, "SM04", nil)
	createTestVariant(t, env.db, empty, "灰", "S", 0, 10)
	gone := createTestProduct(t, env.db, "SM05", nil)
	createTestVariant(t, env.db, gone, "灰", "S", 50, 10)
	if err := env.db.Model(gone).Updates(map[string]interface{}{"is_deleted": true, "deleted_at": time.Now().UTC()}).Error; err != nil {
		t.Fatalf("mark deleted failed: %v", err)
	}

	summary, err := env.ledger.StockSummary(ctx, StockSummaryFilter{})
	if err != nil {
		t.Fatalf("stock summary failed: %v", err)
	}
	if len(summary.Products) != 4 {
		t.Fatalf("deleted product must be excluded, got %d products", len(summary.Products))
	}
	if summary.Totals.TotalQty != 6 || summary.Totals.TotalCost.StringFixed(2) != "18.00" {
		t.Fatalf("unexpected totals %+v", summary.Totals)
	}
	if summary.Totals.ProductCount != 3 || summary.Totals.VariantCount != 3 {
		t.Fatalf("unexpected counters %+v", summary.Totals)
	}
	if len(summary.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %+v", summary.Categories)
	}
	first, second := summary.Categories[0], summary.Categories[1]
	if first.CategoryID != tops.ID || first.TotalQty != 5 || first.ProductCount != 2 || first.VariantCount != 2 {
		t.Fatalf("unexpected first category %+v", first)
	}
	if first.CategoryName != "上衣" || first.TotalCost.StringFixed(2) != "8.00" {
		t.Fatalf("unexpected first category name/cost %+v", first)
	}
	if second.CategoryID != constants.UncategorizedID || second.TotalQty != 1 || second.ProductCount != 1 {
		t.Fatalf("unexpected uncategorized rollup %+v", second)
	}

	filtered, err := env.ledger.StockSummary(ctx, StockSummaryFilter{Keyword: "sm03"})
	if err != nil {
		t.Fatalf("filtered summary failed: %v", err)
	}
	if len(filtered.Products) != 1 || filtered.Products[0].BaseCode != "SM03" {
		t.Fatalf("unexpected keyword filter result %+v", filtered.Products)
	}
}
