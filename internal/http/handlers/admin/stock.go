package admin

import (
	"strconv"
	"strings"

	"github.com/wardrobe-ledger/internal/constants"
	handlershared "github.com/wardrobe-ledger/internal/http/handlers/shared"
	"github.com/wardrobe-ledger/internal/http/response"
	"github.com/wardrobe-ledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateMovementRequest 手工流水请求
type CreateMovementRequest struct {
	VariantID string           `json:"variant_id" binding:"required"`
	Type      string           `json:"type" binding:"required"`
	Qty       int              `json:"qty"`
	UnitCost  *decimal.Decimal `json:"unit_cost"`
	Note      string           `json:"note"`
}

// ReceiveStockRequest 入库请求：variant_id 或 product_id + color + size
type ReceiveStockRequest struct {
	VariantID string           `json:"variant_id"`
	ProductID string           `json:"product_id"`
	Color     string           `json:"color"`
	Size      string           `json:"size"`
	Qty       int              `json:"qty"`
	UnitCost  *decimal.Decimal `json:"unit_cost"`
	SalePrice *decimal.Decimal `json:"sale_price"`
	Note      string           `json:"note"`
}

// BatchReceiveItemRequest 批量入库明细
type BatchReceiveItemRequest struct {
	Color    string           `json:"color"`
	Size     string           `json:"size"`
	Qty      int              `json:"qty"`
	UnitCost *decimal.Decimal `json:"unit_cost"`
}

// BatchReceiveRequest 批量入库请求
type BatchReceiveRequest struct {
	ProductID string                    `json:"product_id"`
	Note      string                    `json:"note"`
	Items     []BatchReceiveItemRequest `json:"items"`
}

// GetStockSummary 库存汇总
func (h *Handler) GetStockSummary(c *gin.Context) {
	summary, err := h.LedgerService.StockSummary(c.Request.Context(), service.StockSummaryFilter{
		CategoryID: c.Query("category_id"),
		Keyword:    strings.TrimSpace(c.Query("keyword")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, summary)
}

// ListMovements 库存流水列表
func (h *Handler) ListMovements(c *gin.Context) {
	page, pageSize := handlershared.PageQuery(c)
	movements, total, err := h.StockService.ListMovements(c.Request.Context(), service.MovementListInput{
		VariantID: c.Query("variant_id"),
		Type:      strings.ToUpper(strings.TrimSpace(c.Query("type"))),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, movements, handlershared.BuildPagination(page, pageSize, total))
}

// CreateMovement 手工入库或盘点调整；调整仅店主可用
func (h *Handler) CreateMovement(c *gin.Context) {
	var req CreateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	movementType := strings.ToUpper(strings.TrimSpace(req.Type))
	if movementType == constants.MovementTypeAdjust && getOperatorRole(c) != constants.OperatorRoleOwner {
		respondError(c, response.CodeForbidden, "error.adjust_forbidden", nil)
		return
	}
	movement, err := h.StockService.CreateMovement(c.Request.Context(), service.CreateMovementInput{
		VariantID: req.VariantID,
		Type:      movementType,
		Qty:       req.Qty,
		UnitCost:  req.UnitCost,
		Note:      req.Note,
	})
	if err != nil {
		respondWithMappedError(c, err, stockErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, movement)
}

// ReceiveStock 入库
func (h *Handler) ReceiveStock(c *gin.Context) {
	var req ReceiveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	movement, err := h.StockService.ReceiveStock(c.Request.Context(), service.ReceiveStockInput{
		VariantID: req.VariantID,
		ProductID: req.ProductID,
		Color:     req.Color,
		Size:      req.Size,
		Qty:       req.Qty,
		UnitCost:  req.UnitCost,
		SalePrice: req.SalePrice,
		Note:      req.Note,
	})
	if err != nil {
		respondWithMappedError(c, err, stockErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, movement)
}

// BatchReceive 按款式批量入库
func (h *Handler) BatchReceive(c *gin.Context) {
	var req BatchReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	items := make([]service.BatchReceiveItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.BatchReceiveItem{
			Color:    item.Color,
			Size:     item.Size,
			Qty:      item.Qty,
			UnitCost: item.UnitCost,
		})
	}
	result, err := h.StockService.BatchReceive(c.Request.Context(), service.BatchReceiveInput{
		ProductID: req.ProductID,
		Note:      req.Note,
		Items:     items,
	})
	if err != nil {
		respondWithMappedError(c, err, stockErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, result)
}

// ListLowStockAlerts 低库存提醒
func (h *Handler) ListLowStockAlerts(c *gin.Context) {
	page, pageSize := handlershared.PageQuery(c)
	includeResolved := false
	if raw := c.Query("include_resolved"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		includeResolved = parsed
	}
	alerts, total, err := h.StockService.ListLowStockAlerts(c.Request.Context(), page, pageSize, includeResolved)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, alerts, handlershared.BuildPagination(page, pageSize, total))
}
