package service

import (
	"context"
	"strings"
	"time"

	"github.com/wardrobe-ledger/internal/constants"
	"github.com/wardrobe-ledger/internal/logger"
	"github.com/wardrobe-ledger/internal/models"
	"github.com/wardrobe-ledger/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SaleService 销售单业务服务
type SaleService struct {
	saleRepo     repository.SaleRepository
	returnRepo   repository.ReturnRepository
	variantRepo  repository.VariantRepository
	movementRepo repository.MovementRepository
	numberer     *DocumentNumberer
	notifier     *StockNotifier
}

// NewSaleService 创建销售单服务
func NewSaleService(
	saleRepo repository.SaleRepository,
	returnRepo repository.ReturnRepository,
	variantRepo repository.VariantRepository,
	movementRepo repository.MovementRepository,
	numberer *DocumentNumberer,
	notifier *StockNotifier,
) *SaleService {
	return &SaleService{
		saleRepo:     saleRepo,
		returnRepo:   returnRepo,
		variantRepo:  variantRepo,
		movementRepo: movementRepo,
		numberer:     numberer,
		notifier:     notifier,
	}
}

// DocumentItemInput 销售 / 退货明细输入
type DocumentItemInput struct {
	VariantID string
	Qty       int
	UnitPrice decimal.Decimal
}

// CreateSaleInput 开单输入
type CreateSaleInput struct {
	SoldAt *time.Time
	Note   string
	Items  []DocumentItemInput
}

// SaleListInput 销售单列表查询
type SaleListInput struct {
	From     *time.Time
	To       *time.Time
	Keyword  string
	Page     int
	PageSize int
}

// SaleDetail 销售单详情，附带每个变体的可退数量
type SaleDetail struct {
	*models.Sale
	Returnable  map[string]int `json:"returnable"`
	ReturnCount int64          `json:"return_count"`
}

// validateDocumentItems 明细基础校验；allowZeroPrice 为 false 时单价必须大于 0
func validateDocumentItems(items []DocumentItemInput, allowZeroPrice bool) ([]DocumentItemInput, error) {
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}
	normalized := make([]DocumentItemInput, 0, len(items))
	for _, item := range items {
		item.VariantID = strings.TrimSpace(item.VariantID)
		if item.VariantID == "" {
			return nil, ErrMissingVariant
		}
		if item.Qty <= 0 {
			return nil, ErrInvalidQty
		}
		if item.UnitPrice.IsNegative() || (!allowZeroPrice && !item.UnitPrice.IsPositive()) {
			return nil, ErrInvalidPrice
		}
		item.UnitPrice = item.UnitPrice.Round(2)
		normalized = append(normalized, item)
	}
	return normalized, nil
}

// requestedQtyByVariant 按变体合并数量，保留首次出现顺序
func requestedQtyByVariant(items []DocumentItemInput) ([]string, map[string]int) {
	order := make([]string, 0, len(items))
	requested := make(map[string]int, len(items))
	for _, item := range items {
		if _, ok := requested[item.VariantID]; !ok {
			order = append(order, item.VariantID)
		}
		requested[item.VariantID] += item.Qty
	}
	return order, requested
}

// CreateSale 开单：锁定变体、校验库存、分配单号、写入明细与出库流水，全部在一个事务内
func (s *SaleService) CreateSale(ctx context.Context, input CreateSaleInput) (*models.Sale, error) {
	items, err := validateDocumentItems(input.Items, true)
	if err != nil {
		return nil, err
	}
	soldAt := time.Now()
	if input.SoldAt != nil && !input.SoldAt.IsZero() {
		soldAt = *input.SoldAt
	}
	order, requested := requestedQtyByVariant(items)

	sale := &models.Sale{
		SoldAt: soldAt.UTC(),
		Note:   normalizeNote(input.Note),
		Items:  make([]models.SaleItem, 0, len(items)),
	}
	total := decimal.Zero
	for _, item := range items {
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Qty)))
		total = total.Add(lineTotal)
		sale.Items = append(sale.Items, models.SaleItem{
			VariantID: item.VariantID,
			Qty:       item.Qty,
			UnitPrice: models.NewMoneyFromDecimal(item.UnitPrice),
			LineTotal: models.NewMoneyFromDecimal(lineTotal),
		})
	}
	sale.TotalAmount = models.NewMoneyFromDecimal(total)

	err = models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		variants, err := s.variantRepo.WithTx(tx).ListByIDsForUpdate(uniqueSortedIDs(order))
		if err != nil {
			return err
		}
		if len(variants) != len(order) {
			return ErrVariantNotFound
		}
		available, err := currentQuantities(s.movementRepo.WithTx(tx), variants)
		if err != nil {
			return err
		}
		skuByID := make(map[string]string, len(variants))
		for _, variant := range variants {
			skuByID[variant.ID] = variant.SKU
		}
		for _, variantID := range order {
			if requested[variantID] > available[variantID] {
				return &StockShortageError{
					SKU:       skuByID[variantID],
					Available: available[variantID],
					Requested: requested[variantID],
				}
			}
		}

		saleNo, err := s.numberer.Assign(tx, constants.DocTypeSale, soldAt, func(sp *gorm.DB, docNo string) error {
			sale.SaleNo = docNo
			return s.saleRepo.WithTx(sp).Create(sale)
		})
		if err != nil {
			return err
		}
		sale.SaleNo = saleNo

		movements := make([]models.StockMovement, 0, len(sale.Items))
		for _, item := range sale.Items {
			saleID := sale.ID
			movementNote := constants.MovementNoteSaleOut
			movements = append(movements, models.StockMovement{
				VariantID: item.VariantID,
				Type:      constants.MovementTypeOut,
				Qty:       -item.Qty,
				SaleID:    &saleID,
				Note:      &movementNote,
			})
		}
		return s.movementRepo.WithTx(tx).CreateBatch(movements)
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("sale_created",
		"sale_id", sale.ID,
		"sale_no", sale.SaleNo,
		"items", len(sale.Items),
		"total_amount", sale.TotalAmount.String(),
	)
	s.notifier.Notify(ctx, StockChangeSale, sale.ID, order)
	return sale, nil
}

// GetSale 销售单详情
func (s *SaleService) GetSale(ctx context.Context, id string) (*SaleDetail, error) {
	sale, err := s.saleRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, ErrSaleNotFound
	}
	returnable, err := returnableQty(s.saleRepo, s.returnRepo, sale.ID)
	if err != nil {
		return nil, err
	}
	count, err := s.returnRepo.CountBySaleID(sale.ID)
	if err != nil {
		return nil, err
	}
	return &SaleDetail{Sale: sale, Returnable: returnable, ReturnCount: count}, nil
}

// ListSales 销售单列表
func (s *SaleService) ListSales(ctx context.Context, input SaleListInput) ([]models.Sale, int64, error) {
	page, pageSize := normalizePagination(input.Page, input.PageSize)
	filter := repository.SaleListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  input.Keyword,
	}
	if input.From != nil {
		from := input.From.UTC()
		filter.From = &from
	}
	if input.To != nil {
		to := input.To.UTC()
		filter.To = &to
	}
	return s.saleRepo.List(filter)
}

// DeleteSale 删除销售单：依次删除出库流水、明细、单据
// 已有退货的销售单不允许删除，避免退货单失去原单
func (s *SaleService) DeleteSale(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrSaleNotFound
	}
	var variantIDs []string
	var saleNo string
	err := models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		saleRepo := s.saleRepo.WithTx(tx)
		sale, err := saleRepo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if sale == nil {
			return ErrSaleNotFound
		}
		saleNo = sale.SaleNo
		returns, err := s.returnRepo.WithTx(tx).CountBySaleID(id)
		if err != nil {
			return err
		}
		if returns > 0 {
			return ErrSaleHasReturns
		}
		sold, err := saleRepo.SumSoldQtyByVariant(id)
		if err != nil {
			return err
		}
		for variantID := range sold {
			variantIDs = append(variantIDs, variantID)
		}
		if _, err := s.movementRepo.WithTx(tx).DeleteBySaleID(id); err != nil {
			return err
		}
		if _, err := saleRepo.DeleteItems(id); err != nil {
			return err
		}
		_, err = saleRepo.Delete(id)
		return err
	})
	if err != nil {
		return err
	}
	logger.Infow("sale_deleted", "sale_id", id, "sale_no", saleNo)
	s.notifier.Notify(ctx, StockChangeSaleDelete, id, variantIDs)
	return nil
}

// returnableQty 每个变体可退数量 = 本单售出 - 本单累计已退
func returnableQty(saleRepo repository.SaleRepository, returnRepo repository.ReturnRepository, saleID string) (map[string]int, error) {
	sold, err := saleRepo.SumSoldQtyByVariant(saleID)
	if err != nil {
		return nil, err
	}
	returned, err := returnRepo.SumReturnedQtyByVariant(saleID)
	if err != nil {
		return nil, err
	}
	return computeReturnable(sold, returned), nil
}

func computeReturnable(sold, returned map[string]int) map[string]int {
	result := make(map[string]int, len(sold))
	for variantID, qty := range sold {
		remaining := qty - returned[variantID]
		if remaining < 0 {
			remaining = 0
		}
		result[variantID] = remaining
	}
	return result
}

func normalizeNote(note string) *string {
	trimmed := strings.TrimSpace(note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
