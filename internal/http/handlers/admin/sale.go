package admin

import (
	handlershared "github.com/wardrobe-ledger/internal/http/handlers/shared"
	"github.com/wardrobe-ledger/internal/http/response"
	"github.com/wardrobe-ledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// DocumentItemRequest 销售 / 退货明细
type DocumentItemRequest struct {
	VariantID string          `json:"variant_id"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateSaleRequest 开单请求
type CreateSaleRequest struct {
	SoldAt string                `json:"sold_at"`
	Note   string                `json:"note"`
	Items  []DocumentItemRequest `json:"items"`
}

func toDocumentItems(items []DocumentItemRequest) []service.DocumentItemInput {
	result := make([]service.DocumentItemInput, 0, len(items))
	for _, item := range items {
		result = append(result, service.DocumentItemInput{
			VariantID: item.VariantID,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
		})
	}
	return result
}

// ListSales 销售单列表
func (h *Handler) ListSales(c *gin.Context) {
	page, pageSize := handlershared.PageQuery(c)
	loc := h.location()
	from, err := handlershared.ParseTimeParam(c.Query("from"), loc)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_range_invalid", nil)
		return
	}
	to, err := handlershared.ParseRangeEndParam(c.Query("to"), loc)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_range_invalid", nil)
		return
	}
	sales, total, err := h.SaleService.ListSales(c.Request.Context(), service.SaleListInput{
		From:     from,
		To:       to,
		Keyword:  c.Query("keyword"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, sales, handlershared.BuildPagination(page, pageSize, total))
}

// GetSale 销售单详情（含可退数量）
func (h *Handler) GetSale(c *gin.Context) {
	detail, err := h.SaleService.GetSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithMappedError(c, err, saleErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, detail)
}

// CreateSale 开单
func (h *Handler) CreateSale(c *gin.Context) {
	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	soldAt, err := handlershared.ParseTimeParam(req.SoldAt, h.location())
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	sale, err := h.SaleService.CreateSale(c.Request.Context(), service.CreateSaleInput{
		SoldAt: soldAt,
		Note:   req.Note,
		Items:  toDocumentItems(req.Items),
	})
	if err != nil {
		respondDocumentError(c, err, saleErrorRules, "error.internal")
		return
	}
	response.Success(c, sale)
}

// DeleteSale 删除销售单及其出库流水
func (h *Handler) DeleteSale(c *gin.Context) {
	if err := h.SaleService.DeleteSale(c.Request.Context(), c.Param("id")); err != nil {
		respondWithMappedError(c, err, saleErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, nil)
}
