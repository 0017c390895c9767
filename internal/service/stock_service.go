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

// StockService 入库、调整与低库存提醒
type StockService struct {
	productRepo       repository.ProductRepository
	variantRepo       repository.VariantRepository
	movementRepo      repository.MovementRepository
	alertRepo         repository.StockAlertRepository
	notifier          *StockNotifier
	lowStockThreshold int
}

// NewStockService 创建库存服务
func NewStockService(
	productRepo repository.ProductRepository,
	variantRepo repository.VariantRepository,
	movementRepo repository.MovementRepository,
	alertRepo repository.StockAlertRepository,
	notifier *StockNotifier,
	lowStockThreshold int,
) *StockService {
	return &StockService{
		productRepo:       productRepo,
		variantRepo:       variantRepo,
		movementRepo:      movementRepo,
		alertRepo:         alertRepo,
		notifier:          notifier,
		lowStockThreshold: lowStockThreshold,
	}
}

// ReceiveStockInput 入库输入：指定 VariantID，或 ProductID + Color + Size
type ReceiveStockInput struct {
	VariantID string
	ProductID string
	Color     string
	Size      string
	Qty       int
	UnitCost  *decimal.Decimal
	SalePrice *decimal.Decimal // 仅新建变体时使用
	Note      string
}

// CreateMovementInput 手工流水输入（IN / ADJUST）
type CreateMovementInput struct {
	VariantID string
	Type      string
	Qty       int
	UnitCost  *decimal.Decimal
	Note      string
}

// BatchReceiveItem 批量入库明细
type BatchReceiveItem struct {
	Color    string
	Size     string
	Qty      int
	UnitCost *decimal.Decimal
}

// BatchReceiveInput 按款式批量入库
type BatchReceiveInput struct {
	ProductID string
	Note      string
	Items     []BatchReceiveItem
}

// BatchReceiveResult 批量入库结果
type BatchReceiveResult struct {
	Count     int                    `json:"count"`
	Movements []models.StockMovement `json:"movements"`
}

// MovementListInput 流水列表查询
type MovementListInput struct {
	VariantID string
	Type      string
	Page      int
	PageSize  int
}

// ReceiveStock 入库并重算加权平均成本
func (s *StockService) ReceiveStock(ctx context.Context, input ReceiveStockInput) (*models.StockMovement, error) {
	if err := validateReceive(input.Qty, input.UnitCost); err != nil {
		return nil, err
	}
	var movement *models.StockMovement
	err := models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		movement, err = s.receiveTx(tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("stock_received",
		"variant_id", movement.VariantID,
		"qty", movement.Qty,
		"movement_id", movement.ID,
	)
	s.notifier.Notify(ctx, StockChangeStockIn, movement.ID, []string{movement.VariantID})
	return movement, nil
}

func validateReceive(qty int, unitCost *decimal.Decimal) error {
	if qty <= 0 {
		return ErrInvalidQty
	}
	if unitCost != nil && unitCost.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}

// receiveTx 在已开启的事务中完成一次入库
func (s *StockService) receiveTx(tx *gorm.DB, input ReceiveStockInput) (*models.StockMovement, error) {
	variant, err := s.resolveReceiveVariant(tx, input)
	if err != nil {
		return nil, err
	}

	quantities, err := currentQuantities(s.movementRepo.WithTx(tx), []models.Variant{*variant})
	if err != nil {
		return nil, err
	}
	nextCost := WeightedAverageCost(quantities[variant.ID], variant.CostPrice.Decimal, input.Qty, input.UnitCost)
	if err := s.variantRepo.WithTx(tx).UpdateCost(variant.ID, models.NewCostFromDecimal(nextCost)); err != nil {
		return nil, err
	}

	movement := &models.StockMovement{
		VariantID: variant.ID,
		Type:      constants.MovementTypeIn,
		Qty:       input.Qty,
		Note:      normalizeNote(input.Note),
	}
	if input.UnitCost != nil {
		unitCost := models.NewCostFromDecimal(*input.UnitCost)
		movement.UnitCost = &unitCost
	}
	if err := s.movementRepo.WithTx(tx).Create(movement); err != nil {
		return nil, err
	}
	return movement, nil
}

// resolveReceiveVariant 定位并锁定入库变体，按 款式+颜色+尺码 入库时不存在则新建
func (s *StockService) resolveReceiveVariant(tx *gorm.DB, input ReceiveStockInput) (*models.Variant, error) {
	productRepo := s.productRepo.WithTx(tx)
	variantRepo := s.variantRepo.WithTx(tx)

	if variantID := strings.TrimSpace(input.VariantID); variantID != "" {
		variant, err := variantRepo.GetByIDForUpdate(variantID)
		if err != nil {
			return nil, err
		}
		if variant == nil {
			return nil, ErrVariantNotFound
		}
		product, err := productRepo.GetByID(variant.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || product.IsDeleted {
			return nil, ErrProductNotFound
		}
		return variant, nil
	}

	productID := strings.TrimSpace(input.ProductID)
	color := strings.TrimSpace(input.Color)
	size := strings.TrimSpace(input.Size)
	if productID == "" || color == "" || size == "" {
		return nil, ErrMissingVariant
	}
	product, err := productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil || product.IsDeleted {
		return nil, ErrProductNotFound
	}

	existing, err := variantRepo.FindByProductColorSize(productID, color, size)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		created := &models.Variant{
			ProductID: productID,
			Color:     color,
			Size:      size,
			SKU:       models.BuildSKU(product.BaseCode, color, size),
		}
		if input.UnitCost != nil {
			created.CostPrice = models.NewCostFromDecimal(*input.UnitCost)
		}
		if input.SalePrice != nil {
			created.SalePrice = models.NewMoneyFromDecimal(*input.SalePrice)
		}
		err := tx.Transaction(func(sp *gorm.DB) error {
			return s.variantRepo.WithTx(sp).Create(created)
		})
		if err != nil && !isUniqueViolation(err) {
			return nil, err
		}
		if err != nil {
			// 并发入库已建好同一变体，复用之
			logger.Debugw("variant_create_conflict_reuse", "product_id", productID, "color", color, "size", size)
			existing, err = variantRepo.FindByProductColorSize(productID, color, size)
			if err != nil {
				return nil, err
			}
			if existing == nil {
				return nil, ErrVariantNotFound
			}
		} else {
			existing = created
		}
	}

	variant, err := variantRepo.GetByIDForUpdate(existing.ID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, ErrVariantNotFound
	}
	return variant, nil
}

// CreateMovement 手工流水：IN 走入库并重算成本，ADJUST 直接记差额（允许库存为负）
func (s *StockService) CreateMovement(ctx context.Context, input CreateMovementInput) (*models.StockMovement, error) {
	movementType := strings.ToUpper(strings.TrimSpace(input.Type))
	switch movementType {
	case constants.MovementTypeIn:
		if strings.TrimSpace(input.VariantID) == "" {
			return nil, ErrMissingVariant
		}
		return s.ReceiveStock(ctx, ReceiveStockInput{
			VariantID: input.VariantID,
			Qty:       input.Qty,
			UnitCost:  input.UnitCost,
			Note:      input.Note,
		})
	case constants.MovementTypeAdjust:
		return s.adjust(ctx, input)
	default:
		return nil, ErrInvalidMovementType
	}
}

func (s *StockService) adjust(ctx context.Context, input CreateMovementInput) (*models.StockMovement, error) {
	variantID := strings.TrimSpace(input.VariantID)
	if variantID == "" {
		return nil, ErrMissingVariant
	}
	if input.Qty == 0 {
		return nil, ErrInvalidQty
	}
	movement := &models.StockMovement{
		VariantID: variantID,
		Type:      constants.MovementTypeAdjust,
		Qty:       input.Qty,
		Note:      normalizeNote(input.Note),
	}
	err := models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		variant, err := s.variantRepo.WithTx(tx).GetByIDForUpdate(variantID)
		if err != nil {
			return err
		}
		if variant == nil {
			return ErrVariantNotFound
		}
		return s.movementRepo.WithTx(tx).Create(movement)
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("stock_adjusted", "variant_id", variantID, "qty", input.Qty, "movement_id", movement.ID)
	s.notifier.Notify(ctx, StockChangeAdjust, movement.ID, []string{variantID})
	return movement, nil
}

// AggregateBatchItems 过滤无效行并按 颜色+尺码 合并：数量累加，单价以最后一个为准
func AggregateBatchItems(items []BatchReceiveItem) []BatchReceiveItem {
	index := make(map[string]int)
	result := make([]BatchReceiveItem, 0, len(items))
	for _, item := range items {
		color := strings.TrimSpace(item.Color)
		size := strings.TrimSpace(item.Size)
		if color == "" || size == "" || item.Qty <= 0 {
			continue
		}
		key := color + "__" + size
		idx, ok := index[key]
		if !ok {
			result = append(result, BatchReceiveItem{Color: color, Size: size})
			idx = len(result) - 1
			index[key] = idx
		}
		result[idx].Qty += item.Qty
		if item.UnitCost != nil {
			unitCost := *item.UnitCost
			result[idx].UnitCost = &unitCost
		}
	}
	return result
}

// BatchReceive 按款式批量入库，所有行在同一事务内
func (s *StockService) BatchReceive(ctx context.Context, input BatchReceiveInput) (*BatchReceiveResult, error) {
	productID := strings.TrimSpace(input.ProductID)
	if productID == "" {
		return nil, ErrProductNotFound
	}
	items := AggregateBatchItems(input.Items)
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}
	for _, item := range items {
		if item.UnitCost != nil && item.UnitCost.IsNegative() {
			return nil, ErrInvalidPrice
		}
	}
	note := strings.TrimSpace(input.Note)
	if note == "" {
		note = constants.MovementNoteBatchStock
	}

	result := &BatchReceiveResult{Movements: make([]models.StockMovement, 0, len(items))}
	err := models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			movement, err := s.receiveTx(tx, ReceiveStockInput{
				ProductID: productID,
				Color:     item.Color,
				Size:      item.Size,
				Qty:       item.Qty,
				UnitCost:  item.UnitCost,
				Note:      note,
			})
			if err != nil {
				return err
			}
			result.Movements = append(result.Movements, *movement)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Count = len(result.Movements)

	variantIDs := make([]string, 0, len(result.Movements))
	for _, movement := range result.Movements {
		variantIDs = append(variantIDs, movement.VariantID)
	}
	logger.Infow("stock_batch_received", "product_id", productID, "lines", result.Count)
	s.notifier.Notify(ctx, StockChangeStockIn, productID, variantIDs)
	return result, nil
}

// ListMovements 流水列表
func (s *StockService) ListMovements(ctx context.Context, input MovementListInput) ([]models.StockMovement, int64, error) {
	page, pageSize := normalizePagination(input.Page, input.PageSize)
	return s.movementRepo.List(repository.MovementListFilter{
		Page:      page,
		PageSize:  pageSize,
		VariantID: input.VariantID,
		Type:      input.Type,
	})
}

// ListLowStockAlerts 低库存提醒列表
func (s *StockService) ListLowStockAlerts(ctx context.Context, page, pageSize int, includeResolved bool) ([]models.StockAlert, int64, error) {
	page, pageSize = normalizePagination(page, pageSize)
	return s.alertRepo.List(repository.StockAlertListFilter{
		Page:            page,
		PageSize:        pageSize,
		IncludeResolved: includeResolved,
	})
}

// CheckLowStock 库存变动后刷新低库存提醒：低于等于阈值时开启，回升后解除
func (s *StockService) CheckLowStock(ctx context.Context, variantIDs []string) (opened int, resolved int, err error) {
	ids := uniqueSortedIDs(variantIDs)
	if len(ids) == 0 {
		return 0, 0, nil
	}
	variants, err := s.variantRepo.ListByIDs(ids)
	if err != nil {
		return 0, 0, err
	}
	quantities, err := currentQuantities(s.movementRepo, variants)
	if err != nil {
		return 0, 0, err
	}
	return s.reconcileAlerts(variants, quantities)
}

// SweepLowStock 全量巡检未删除款式的变体，补齐异步任务丢失时漏掉的提醒
func (s *StockService) SweepLowStock(ctx context.Context) (opened int, resolved int, err error) {
	variants, err := s.variantRepo.ListActive()
	if err != nil {
		return 0, 0, err
	}
	if len(variants) == 0 {
		return 0, 0, nil
	}
	sums, err := s.movementRepo.SumQtyAll()
	if err != nil {
		return 0, 0, err
	}
	quantities := make(map[string]int, len(variants))
	for _, variant := range variants {
		quantities[variant.ID] = variant.BaseQty + sums[variant.ID]
	}
	return s.reconcileAlerts(variants, quantities)
}

// reconcileAlerts 低于阈值开提醒（已开则刷新数量），恢复后关闭
func (s *StockService) reconcileAlerts(variants []models.Variant, quantities map[string]int) (opened int, resolved int, err error) {
	ids := make([]string, 0, len(variants))
	for _, variant := range variants {
		ids = append(ids, variant.ID)
	}
	openAlerts, err := s.alertRepo.ListOpenByVariantIDs(ids)
	if err != nil {
		return 0, 0, err
	}
	openByVariant := make(map[string]models.StockAlert, len(openAlerts))
	for _, alert := range openAlerts {
		openByVariant[alert.VariantID] = alert
	}

	toResolve := make([]string, 0)
	for _, variant := range variants {
		qty := quantities[variant.ID]
		alert, hasOpen := openByVariant[variant.ID]
		low := qty <= s.lowStockThreshold && (variant.Product == nil || !variant.Product.IsDeleted)
		switch {
		case low && hasOpen:
			if alert.Qty != qty {
				if err := s.alertRepo.UpdateQty(alert.ID, qty); err != nil {
					return opened, resolved, err
				}
			}
		case low:
			if err := s.alertRepo.Create(&models.StockAlert{
				VariantID: variant.ID,
				SKU:       variant.SKU,
				Qty:       qty,
				Threshold: s.lowStockThreshold,
			}); err != nil {
				return opened, resolved, err
			}
			opened++
		case hasOpen:
			toResolve = append(toResolve, alert.ID)
		}
	}
	if err := s.alertRepo.Resolve(toResolve, time.Now()); err != nil {
		return opened, len(toResolve), err
	}
	resolved = len(toResolve)
	if opened > 0 || resolved > 0 {
		logger.Infow("low_stock_alerts_refreshed", "opened", opened, "resolved", resolved)
	}
	return opened, resolved, nil
}
