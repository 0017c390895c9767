package service

import (
	"context"
	"errors"
	"testing"

	"github.com/wardrobe-ledger/internal/constants"
	"github.com/wardrobe-ledger/internal/models"
)

func setupSaleForReturn(t *testing.T) (*ledgerTestEnv, *models.Sale, *models.Variant, *models.Variant) {
	t.Helper()
	env := setupLedgerTest(t, constants.NumberingStrategyCounter)
	product := createTestProduct(t, env.db, "RT01", nil)
	sold := createTestVariant(t, env.db, product, "黑", "M", 5, 3)
	other := createTestVariant(t, env.db, product, "黑", "L", 5, 3)
	sale, err := env.sales.CreateSale(context.Background(), CreateSaleInput{
		Items: []DocumentItemInput{saleLine(sold.ID, 3, 10)},
	})
	if err != nil {
		t.Fatalf("create sale failed: %v", err)
	}
	return env, sale, sold, other
}

func TestCreateReturnCumulativeEligibility(t *testing.T) {
	env, sale, sold, _ := setupSaleForReturn(t)
	ctx := context.Background()

	if _, err := env.returns.CreateReturn(ctx, CreateReturnInput{
		SaleID: sale.ID,
		Items:  []DocumentItemInput{saleLine(sold.ID, 2, 10)},
	}); err != nil {
		t.Fatalf("first return failed: %v", err)
	}
	_, err := env.returns.CreateReturn(ctx, CreateReturnInput{
		SaleID: sale.ID,
		Items:  []DocumentItemInput{saleLine(sold.ID, 2, 10)},
	})
	if !errors.Is(err, ErrOverReturn) {
		t.Fatalf("expected over return, got %v", err)
	}
	second, err := env.returns.CreateReturn(ctx, CreateReturnInput{
		SaleID: sale.ID,
		Items:  []DocumentItemInput{saleLine(sold.ID, 1, 10)},
	})
	if err != nil {
		t.Fatalf("last unit return failed: %v", err)
	}
	if second.ReturnNo[len(second.ReturnNo)-4:] != "0002" {
		t.Fatalf("expected second return number 0002, got %s", second.ReturnNo)
	}
	if n := countMovements(t, env.db, sold.ID, constants.MovementTypeReturn); n != 2 {
		t.Fatalf("expected 2 return movements, got %d", n)
	}
	if qty := mustQty(t, env, sold.ID); qty != 5 {
		t.Fatalf("expected qty back to 5, got %d", qty)
	}
}

func TestCreateReturnDuplicateLinesSummed(t *testing.T) {
	env, sale, sold, _ := setupSaleForReturn(t)
	_, err := env.returns.CreateReturn(context.Background(), CreateReturnInput{
		SaleID: sale.ID,
		Items:  []DocumentItemInput{saleLine(sold.ID, 2, 10), saleLine(sold.ID, 2, 10)},
	})
	if !errors.Is(err, ErrOverReturn) {
		t.Fatalf("expected over return for summed lines, got %v", err)
	}
}

func TestCreateReturnVariantNotOnSale(t *testing.T) {
	env, sale, _, other := setupSaleForReturn(t)
	_, err := env.returns.CreateReturn(context.Background(), CreateReturnInput{
		SaleID: sale.ID,
		Items:  []DocumentItemInput{saleLine(other.ID, 1, 10)},
	})
	var overErr *OverReturnError
	if !errors.As(err, &overErr) || overErr.Returnable != 0 || overErr.SKU != "RT01-黑-L" {
		t.Fatalf("expected zero eligibility for variant not on sale, got %v", err)
	}
}

func TestCreateReturnValidation(t *testing.T) {
	env, sale, sold, _ := setupSaleForReturn(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		saleID string
		items  []DocumentItemInput
		want   error
	}{
		{name: "blank sale", saleID: " ", items: []DocumentItemInput{saleLine(sold.ID, 1, 10)}, want: ErrSaleNotFound},
		{name: "unknown sale", saleID: "missing", items: []DocumentItemInput{saleLine(sold.ID, 1, 10)}, want: ErrSaleNotFound},
		{name: "unknown sale with empty items", saleID: "missing", want: ErrSaleNotFound},
		{name: "unknown sale with bad line", saleID: "missing", items: []DocumentItemInput{saleLine(sold.ID, 0, 10)}, want: ErrSaleNotFound},
		{name: "empty items", saleID: sale.ID, want: ErrEmptyItems},
		{name: "missing variant", saleID: sale.ID, items: []DocumentItemInput{saleLine("", 1, 10)}, want: ErrMissingVariant},
		{name: "zero qty", saleID: sale.ID, items: []DocumentItemInput{saleLine(sold.ID, 0, 10)}, want: ErrInvalidQty},
		{name: "zero price", saleID: sale.ID, items: []DocumentItemInput{saleLine(sold.ID, 1, 0)}, want: ErrInvalidPrice},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.returns.CreateReturn(ctx, CreateReturnInput{SaleID: tc.saleID, Items: tc.items})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestGetAndListReturns(t *testing.T) {
	env, sale, sold, _ := setupSaleForReturn(t)
	ctx := context.Background()
	ret, err := env.returns.CreateReturn(ctx, CreateReturnInput{
		SaleID: sale.ID,
		Note:   "  尺码不合适 ",
		Items:  []DocumentItemInput{saleLine(sold.ID, 1, 10)},
	})
	if err != nil {
		t.Fatalf("create return failed: %v", err)
	}

	got, err := env.returns.GetReturn(ctx, ret.ID)
	if err != nil {
		t.Fatalf("get return failed: %v", err)
	}
	if got.Note == nil || *got.Note != "尺码不合适" || len(got.Items) != 1 || got.Sale == nil || got.Sale.ID != sale.ID {
		t.Fatalf("unexpected return detail: %+v", got)
	}
	if _, err := env.returns.GetReturn(ctx, "missing"); !errors.Is(err, ErrReturnNotFound) {
		t.Fatalf("expected return not found, got %v", err)
	}

	list, total, err := env.returns.ListReturns(ctx, ReturnListInput{SaleID: sale.ID})
	if err != nil {
		t.Fatalf("list returns failed: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("unexpected list result total=%d len=%d", total, len(list))
	}
}
