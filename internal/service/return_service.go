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

// ReturnService 退货单业务服务
type ReturnService struct {
	saleRepo     repository.SaleRepository
	returnRepo   repository.ReturnRepository
	variantRepo  repository.VariantRepository
	movementRepo repository.MovementRepository
	numberer     *DocumentNumberer
	notifier     *StockNotifier
}

// NewReturnService 创建退货单服务
func NewReturnService(
	saleRepo repository.SaleRepository,
	returnRepo repository.ReturnRepository,
	variantRepo repository.VariantRepository,
	movementRepo repository.MovementRepository,
	numberer *DocumentNumberer,
	notifier *StockNotifier,
) *ReturnService {
	return &ReturnService{
		saleRepo:     saleRepo,
		returnRepo:   returnRepo,
		variantRepo:  variantRepo,
		movementRepo: movementRepo,
		numberer:     numberer,
		notifier:     notifier,
	}
}

// CreateReturnInput 退货输入
type CreateReturnInput struct {
	SaleID     string
	ReturnedAt *time.Time
	Note       string
	Items      []DocumentItemInput
}

// ReturnListInput 退货单列表查询
type ReturnListInput struct {
	SaleID   string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// CreateReturn 退货：按原销售单校验可退数量，写入退货单与退货入库流水
func (s *ReturnService) CreateReturn(ctx context.Context, input CreateReturnInput) (*models.Return, error) {
	saleID := strings.TrimSpace(input.SaleID)
	if saleID == "" {
		return nil, ErrSaleNotFound
	}
	// 先确认销售单存在再校验明细，事务内加锁后还会再查一次
	sale, err := s.saleRepo.GetByID(saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, ErrSaleNotFound
	}
	items, err := validateDocumentItems(input.Items, false)
	if err != nil {
		return nil, err
	}
	returnedAt := time.Now()
	if input.ReturnedAt != nil && !input.ReturnedAt.IsZero() {
		returnedAt = *input.ReturnedAt
	}
	order, requested := requestedQtyByVariant(items)

	ret := &models.Return{
		SaleID:     saleID,
		ReturnedAt: returnedAt.UTC(),
		Note:       normalizeNote(input.Note),
		Items:      make([]models.ReturnItem, 0, len(items)),
	}
	total := decimal.Zero
	for _, item := range items {
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Qty)))
		total = total.Add(lineTotal)
		ret.Items = append(ret.Items, models.ReturnItem{
			VariantID: item.VariantID,
			Qty:       item.Qty,
			UnitPrice: models.NewMoneyFromDecimal(item.UnitPrice),
			LineTotal: models.NewMoneyFromDecimal(lineTotal),
		})
	}
	ret.TotalAmount = models.NewMoneyFromDecimal(total)

	err = models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		saleRepo := s.saleRepo.WithTx(tx)
		// 锁住原销售单，同一销售单的退货串行校验
		sale, err := saleRepo.GetByIDForUpdate(saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return ErrSaleNotFound
		}
		returnable, err := returnableQty(saleRepo, s.returnRepo.WithTx(tx), saleID)
		if err != nil {
			return err
		}
		for _, variantID := range order {
			if requested[variantID] > returnable[variantID] {
				return &OverReturnError{
					SKU:        s.lookupSKU(tx, variantID),
					Returnable: returnable[variantID],
					Requested:  requested[variantID],
				}
			}
		}

		returnNo, err := s.numberer.Assign(tx, constants.DocTypeReturn, returnedAt, func(sp *gorm.DB, docNo string) error {
			ret.ReturnNo = docNo
			return s.returnRepo.WithTx(sp).Create(ret)
		})
		if err != nil {
			return err
		}
		ret.ReturnNo = returnNo

		movements := make([]models.StockMovement, 0, len(ret.Items))
		for _, item := range ret.Items {
			returnID := ret.ID
			movementNote := constants.MovementNoteReturnIn
			movements = append(movements, models.StockMovement{
				VariantID: item.VariantID,
				Type:      constants.MovementTypeReturn,
				Qty:       item.Qty,
				ReturnID:  &returnID,
				Note:      &movementNote,
			})
		}
		return s.movementRepo.WithTx(tx).CreateBatch(movements)
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("return_created",
		"return_id", ret.ID,
		"return_no", ret.ReturnNo,
		"sale_id", saleID,
		"total_amount", ret.TotalAmount.String(),
	)
	s.notifier.Notify(ctx, StockChangeReturn, ret.ID, order)
	return ret, nil
}

func (s *ReturnService) lookupSKU(tx *gorm.DB, variantID string) string {
	variant, err := s.variantRepo.WithTx(tx).GetByID(variantID)
	if err != nil || variant == nil {
		return variantID
	}
	return variant.SKU
}

// GetReturn 退货单详情
func (s *ReturnService) GetReturn(ctx context.Context, id string) (*models.Return, error) {
	ret, err := s.returnRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, ErrReturnNotFound
	}
	return ret, nil
}

// ListReturns 退货单列表
func (s *ReturnService) ListReturns(ctx context.Context, input ReturnListInput) ([]models.Return, int64, error) {
	page, pageSize := normalizePagination(input.Page, input.PageSize)
	filter := repository.ReturnListFilter{
		Page:     page,
		PageSize: pageSize,
		SaleID:   input.SaleID,
	}
	if input.From != nil {
		from := input.From.UTC()
		filter.From = &from
	}
	if input.To != nil {
		to := input.To.UTC()
		filter.To = &to
	}
	return s.returnRepo.List(filter)
}
