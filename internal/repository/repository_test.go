package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/wardrobe-ledger/internal/constants"
	"github.com/wardrobe-ledger/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repository_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func createRepoTestVariant(t *testing.T, db *gorm.DB, baseCode, color, size string, baseQty int) *models.Variant {
	t.Helper()
	product := &models.Product{Name: "测试款 " + baseCode, BaseCode: baseCode}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	variant := &models.Variant{
		ProductID: product.ID,
		Color:     color,
		Size:      size,
		BaseQty:   baseQty,
		CostPrice: models.NewCost(4),
		SalePrice: models.NewMoney(10),
		SKU:       models.BuildSKU(baseCode, color, size),
	}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	return variant
}

func TestCounterNextSeqIncrementsPerKey(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewCounterRepository(db)

	for want := 1; want <= 3; want++ {
		got, err := repo.NextSeq(constants.DocTypeSale, "20260301")
		if err != nil {
			t.Fatalf("next seq failed: %v", err)
		}
		if got != want {
			t.Fatalf("seq want %d got %d", want, got)
		}
	}

	got, err := repo.NextSeq(constants.DocTypeReturn, "20260301")
	if err != nil {
		t.Fatalf("next seq failed: %v", err)
	}
	if got != 1 {
		t.Fatalf("return counter should start at 1, got %d", got)
	}
	got, err = repo.NextSeq(constants.DocTypeSale, "20260302")
	if err != nil {
		t.Fatalf("next seq failed: %v", err)
	}
	if got != 1 {
		t.Fatalf("next day counter should start at 1, got %d", got)
	}

	current, err := repo.Current(constants.DocTypeSale, "20260301")
	if err != nil {
		t.Fatalf("current failed: %v", err)
	}
	if current != 3 {
		t.Fatalf("current want 3 got %d", current)
	}
}

func TestMovementSumQtyByVariantIDs(t *testing.T) {
	db := setupRepositoryTestDB(t)
	v1 := createRepoTestVariant(t, db, "M01", "黑", "M", 0)
	v2 := createRepoTestVariant(t, db, "M02", "白", "L", 5)
	repo := NewMovementRepository(db)

	movements := []models.StockMovement{
		{VariantID: v1.ID, Type: constants.MovementTypeIn, Qty: 10},
		{VariantID: v1.ID, Type: constants.MovementTypeOut, Qty: -3},
		{VariantID: v1.ID, Type: constants.MovementTypeReturn, Qty: 1},
	}
	if err := repo.CreateBatch(movements); err != nil {
		t.Fatalf("create movements failed: %v", err)
	}

	sums, err := repo.SumQtyByVariantIDs([]string{v1.ID, v2.ID})
	if err != nil {
		t.Fatalf("sum movements failed: %v", err)
	}
	if sums[v1.ID] != 8 {
		t.Fatalf("v1 movement sum want 8 got %d", sums[v1.ID])
	}
	if _, ok := sums[v2.ID]; ok {
		t.Fatalf("variant without movements should be absent")
	}

	list, total, err := repo.List(MovementListFilter{VariantID: v1.ID, Type: "out", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list movements failed: %v", err)
	}
	if total != 1 || len(list) != 1 || list[0].Qty != -3 {
		t.Fatalf("unexpected filtered movements: total=%d list=%+v", total, list)
	}
	if list[0].Variant == nil || list[0].Variant.Product == nil {
		t.Fatalf("movement list should preload variant and product")
	}
}

func TestSaleAndReturnQtyAggregation(t *testing.T) {
	db := setupRepositoryTestDB(t)
	v := createRepoTestVariant(t, db, "S01", "红", "S", 10)
	saleRepo := NewSaleRepository(db)
	returnRepo := NewReturnRepository(db)

	sale := &models.Sale{
		SaleNo: "S20260301-0001",
		SoldAt: time.Now().UTC(),
		Items: []models.SaleItem{
			{VariantID: v.ID, Qty: 2, UnitPrice: models.NewMoney(10), LineTotal: models.NewMoney(20)},
			{VariantID: v.ID, Qty: 1, UnitPrice: models.NewMoney(9), LineTotal: models.NewMoney(9)},
		},
	}
	if err := saleRepo.Create(sale); err != nil {
		t.Fatalf("create sale failed: %v", err)
	}
	sold, err := saleRepo.SumSoldQtyByVariant(sale.ID)
	if err != nil {
		t.Fatalf("sum sold failed: %v", err)
	}
	if sold[v.ID] != 3 {
		t.Fatalf("sold qty want 3 got %d", sold[v.ID])
	}

	for i, qty := range []int{1, 1} {
		ret := &models.Return{
			SaleID:     sale.ID,
			ReturnNo:   fmt.Sprintf("R20260301-%04d", i+1),
			ReturnedAt: time.Now().UTC(),
			Items: []models.ReturnItem{
				{VariantID: v.ID, Qty: qty, UnitPrice: models.NewMoney(10), LineTotal: models.NewMoney(10)},
			},
		}
		if err := returnRepo.Create(ret); err != nil {
			t.Fatalf("create return failed: %v", err)
		}
	}
	returned, err := returnRepo.SumReturnedQtyByVariant(sale.ID)
	if err != nil {
		t.Fatalf("sum returned failed: %v", err)
	}
	if returned[v.ID] != 2 {
		t.Fatalf("returned qty want 2 got %d", returned[v.ID])
	}

	count, err := returnRepo.CountByNoPrefix("R20260301-")
	if err != nil || count != 2 {
		t.Fatalf("return prefix count want 2 got %d err=%v", count, err)
	}
	count, err = saleRepo.CountByNoPrefix("S20260302-")
	if err != nil || count != 0 {
		t.Fatalf("other day prefix count want 0 got %d err=%v", count, err)
	}
}

func TestProductListDeletedFilter(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewProductRepository(db)
	active := createRepoTestVariant(t, db, "P01", "黑", "M", 0)
	removed := createRepoTestVariant(t, db, "P02", "黑", "M", 0)
	if _, err := repo.SetDeleted(removed.ProductID, true, time.Now()); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}

	list, total, err := repo.List(ProductListFilter{WithVariants: true})
	if err != nil {
		t.Fatalf("list products failed: %v", err)
	}
	if total != 1 || list[0].ID != active.ProductID || len(list[0].Variants) != 1 {
		t.Fatalf("default list should only contain active product: %+v", list)
	}

	list, total, err = repo.List(ProductListFilter{Deleted: constants.ProductDeletedFilterTrue})
	if err != nil {
		t.Fatalf("list deleted failed: %v", err)
	}
	if total != 1 || list[0].ID != removed.ProductID || list[0].DeletedAt == nil {
		t.Fatalf("deleted list mismatch: %+v", list)
	}

	_, total, err = repo.List(ProductListFilter{Deleted: constants.ProductDeletedFilterAll, Keyword: "p0"})
	if err != nil {
		t.Fatalf("list all failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("all list with keyword want 2 got %d", total)
	}

	if _, err := repo.SetDeleted(removed.ProductID, false, time.Now()); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	restored, err := repo.GetByID(removed.ProductID)
	if err != nil || restored == nil {
		t.Fatalf("get restored failed: %v", err)
	}
	if restored.IsDeleted || restored.DeletedAt != nil {
		t.Fatalf("restore should clear deleted flags: %+v", restored)
	}
}

func TestDictionaryRepositoryFiltersAndCounts(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewSizeRepository(db)

	active := &models.Size{Name: "M", IsActive: true}
	if err := repo.Create(active); err != nil {
		t.Fatalf("create size failed: %v", err)
	}
	retired := &models.Size{Name: "XXS", IsActive: true}
	if err := repo.Create(retired); err != nil {
		t.Fatalf("create size failed: %v", err)
	}
	if err := repo.Update(retired.ID, map[string]interface{}{"is_active": false}); err != nil {
		t.Fatalf("deactivate size failed: %v", err)
	}

	all, err := repo.List(false)
	if err != nil || len(all) != 2 {
		t.Fatalf("list all want 2 got %d err=%v", len(all), err)
	}
	onlyActive, err := repo.List(true)
	if err != nil || len(onlyActive) != 1 || onlyActive[0].Name != "M" {
		t.Fatalf("active list unexpected: %+v err=%v", onlyActive, err)
	}

	if count, _ := repo.CountByName("M", ""); count != 1 {
		t.Fatalf("count by name want 1 got %d", count)
	}
	if count, _ := repo.CountByName("M", active.ID); count != 0 {
		t.Fatalf("count excluding self want 0 got %d", count)
	}
	missing, err := repo.GetByID("missing")
	if err != nil || missing != nil {
		t.Fatalf("missing id want nil,nil got %v,%v", missing, err)
	}
}
