package admin

import (
	"strings"

	"github.com/wardrobe-ledger/internal/constants"
	handlershared "github.com/wardrobe-ledger/internal/http/handlers/shared"
	"github.com/wardrobe-ledger/internal/http/response"
	"github.com/wardrobe-ledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProductVariantRequest 建档变体
type ProductVariantRequest struct {
	Color     string          `json:"color"`
	Size      string          `json:"size"`
	Qty       int             `json:"qty"`
	CostPrice decimal.Decimal `json:"cost_price"`
	SalePrice decimal.Decimal `json:"sale_price"`
	SKU       string          `json:"sku"`
}

// CreateProductRequest 创建款式请求
type CreateProductRequest struct {
	Name       string                  `json:"name"`
	BaseCode   string                  `json:"base_code"`
	CategoryID *string                 `json:"category_id"`
	Tags       []string                `json:"tags"`
	ImageURL   *string                 `json:"image_url"`
	Variants   []ProductVariantRequest `json:"variants"`
}

// PatchProductRequest 软删除 / 恢复
type PatchProductRequest struct {
	Deleted *bool `json:"deleted" binding:"required"`
}

// ListProducts 款式列表
func (h *Handler) ListProducts(c *gin.Context) {
	page, pageSize := handlershared.PageQuery(c)

	deleted := strings.ToLower(strings.TrimSpace(c.DefaultQuery("deleted", constants.ProductDeletedFilterFalse)))
	switch deleted {
	case constants.ProductDeletedFilterFalse, constants.ProductDeletedFilterTrue, constants.ProductDeletedFilterAll:
	default:
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	loc := h.location()
	deletedFrom, err := handlershared.ParseTimeParam(c.Query("deleted_from"), loc)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_range_invalid", nil)
		return
	}
	deletedTo, err := handlershared.ParseTimeParam(c.Query("deleted_to"), loc)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_range_invalid", nil)
		return
	}

	products, total, err := h.ProductService.ListProducts(c.Request.Context(), service.ProductListInput{
		Page:        page,
		PageSize:    pageSize,
		Deleted:     deleted,
		Keyword:     c.Query("keyword"),
		CategoryID:  c.Query("category_id"),
		DeletedFrom: deletedFrom,
		DeletedTo:   deletedTo,
	})
	if err != nil {
		respondWithMappedError(c, err, productErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.SuccessWithPage(c, products, handlershared.BuildPagination(page, pageSize, total))
}

// GetProduct 款式详情
func (h *Handler) GetProduct(c *gin.Context) {
	detail, err := h.ProductService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithMappedError(c, err, productErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, detail)
}

// CreateProduct 新建款式及变体
func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	variants := make([]service.ProductVariantInput, 0, len(req.Variants))
	for _, item := range req.Variants {
		variants = append(variants, service.ProductVariantInput{
			Color:     item.Color,
			Size:      item.Size,
			Qty:       item.Qty,
			CostPrice: item.CostPrice,
			SalePrice: item.SalePrice,
			SKU:       item.SKU,
		})
	}
	product, err := h.ProductService.CreateProduct(c.Request.Context(), service.CreateProductInput{
		Name:       req.Name,
		BaseCode:   req.BaseCode,
		CategoryID: req.CategoryID,
		Tags:       req.Tags,
		ImageURL:   req.ImageURL,
		Variants:   variants,
	})
	if err != nil {
		respondWithMappedError(c, err, productErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, product)
}

// PatchProduct 软删除或恢复款式
func (h *Handler) PatchProduct(c *gin.Context) {
	var req PatchProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.ProductService.SetProductDeleted(c.Request.Context(), c.Param("id"), *req.Deleted)
	if err != nil {
		respondWithMappedError(c, err, productErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, product)
}

// DeleteProduct 删除款式（软删除）
func (h *Handler) DeleteProduct(c *gin.Context) {
	product, err := h.ProductService.DeleteProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithMappedError(c, err, productErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, product)
}
