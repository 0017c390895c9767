package admin

import (
	handlershared "github.com/wardrobe-ledger/internal/http/handlers/shared"
	"github.com/wardrobe-ledger/internal/http/response"
	"github.com/wardrobe-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateReturnRequest 退货请求
type CreateReturnRequest struct {
	SaleID     string                `json:"sale_id"`
	ReturnedAt string                `json:"returned_at"`
	Note       string                `json:"note"`
	Items      []DocumentItemRequest `json:"items"`
}

// ListReturns 退货单列表
func (h *Handler) ListReturns(c *gin.Context) {
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
	returns, total, err := h.ReturnService.ListReturns(c.Request.Context(), service.ReturnListInput{
		SaleID:   c.Query("sale_id"),
		From:     from,
		To:       to,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, returns, handlershared.BuildPagination(page, pageSize, total))
}

// GetReturn 退货单详情
func (h *Handler) GetReturn(c *gin.Context) {
	ret, err := h.ReturnService.GetReturn(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithMappedError(c, err, returnErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, ret)
}

// CreateReturn 退货
func (h *Handler) CreateReturn(c *gin.Context) {
	var req CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	returnedAt, err := handlershared.ParseTimeParam(req.ReturnedAt, h.location())
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	ret, err := h.ReturnService.CreateReturn(c.Request.Context(), service.CreateReturnInput{
		SaleID:     req.SaleID,
		ReturnedAt: returnedAt,
		Note:       req.Note,
		Items:      toDocumentItems(req.Items),
	})
	if err != nil {
		respondDocumentError(c, err, returnErrorRules, "error.internal")
		return
	}
	response.Success(c, ret)
}
