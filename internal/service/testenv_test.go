package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/wardrobe-ledger/internal/models"
	"github.com/wardrobe-ledger/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ledgerTestEnv struct {
	db       *gorm.DB
	numberer *DocumentNumberer
	ledger   *LedgerService
	sales    *SaleService
	returns  *ReturnService
	stock    *StockService
	products *ProductService
	reports  *ReportService
}

func setupLedgerTest(t *testing.T, strategy string) *ledgerTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:ledger_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	// 内存库共享缓存下多连接会互相锁表，测试里串行化所有写入
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	variantRepo := repository.NewVariantRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	returnRepo := repository.NewReturnRepository(db)
	counterRepo := repository.NewCounterRepository(db)
	alertRepo := repository.NewStockAlertRepository(db)
	reportRepo := repository.NewReportRepository(db)

	numberer := NewDocumentNumberer(NumberingOptions{
		Strategy: strategy,
		Location: time.UTC,
	}, counterRepo, saleRepo, returnRepo)
	notifier := NewStockNotifier(nil)

	return &ledgerTestEnv{
		db:       db,
		numberer: numberer,
		ledger:   NewLedgerService(productRepo, variantRepo, movementRepo, 0),
		sales:    NewSaleService(saleRepo, returnRepo, variantRepo, movementRepo, numberer, notifier),
		returns:  NewReturnService(saleRepo, returnRepo, variantRepo, movementRepo, numberer, notifier),
		stock:    NewStockService(productRepo, variantRepo, movementRepo, alertRepo, notifier, 2),
		products: NewProductService(productRepo, categoryRepo, movementRepo, notifier, time.UTC),
		reports:  NewReportService(reportRepo, time.UTC, 10),
	}
}

func createTestProduct(t *testing.T, db *gorm.DB, baseCode string, categoryID *string) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:       "测试款 " + baseCode,
		BaseCode:   baseCode,
		CategoryID: categoryID,
		Tags:       models.StringArray{},
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func createTestVariant(t *testing.T, db *gorm.DB, product *models.Product, color, size string, baseQty int, cost float64) *models.Variant {
	t.Helper()
	variant := &models.Variant{
		ProductID: product.ID,
		Color:     color,
		Size:      size,
		BaseQty:   baseQty,
		CostPrice: models.NewCost(cost),
		SalePrice: models.NewMoney(cost * 2),
		SKU:       models.BuildSKU(product.BaseCode, color, size),
	}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	return variant
}

func saleLine(variantID string, qty int, price int64) DocumentItemInput {
	return DocumentItemInput{VariantID: variantID, Qty: qty, UnitPrice: decimal.NewFromInt(price)}
}

func decimalPtr(value int64) *decimal.Decimal {
	d := decimal.NewFromInt(value)
	return &d
}

func mustQty(t *testing.T, env *ledgerTestEnv, variantID string) int {
	t.Helper()
	qty, err := env.ledger.CurrentQuantity(context.Background(), variantID)
	if err != nil {
		t.Fatalf("current quantity failed: %v", err)
	}
	return qty
}

func countMovements(t *testing.T, db *gorm.DB, variantID, movementType string) int64 {
	t.Helper()
	var count int64
	query := db.Model(&models.StockMovement{}).Where("variant_id = ?", variantID)
	if movementType != "" {
		query = query.Where("type = ?", movementType)
	}
	if err := query.Count(&count).Error; err != nil {
		t.Fatalf("count movements failed: %v", err)
	}
	return count
}

func repositoryCategory(env *ledgerTestEnv) repository.CategoryRepository {
	return repository.NewCategoryRepository(env.db)
}

func repositorySize(env *ledgerTestEnv) repository.SizeRepository {
	return repository.NewSizeRepository(env.db)
}
