package admin

import (
	"strconv"

	"github.com/wardrobe-ledger/internal/http/response"
	"github.com/wardrobe-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// DictionaryCreateRequest 分类 / 尺码创建请求
type DictionaryCreateRequest struct {
	Name string `json:"name" binding:"required"`
}

// DictionaryUpdateRequest 分类 / 尺码更新请求
type DictionaryUpdateRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

func activeOnlyQuery(c *gin.Context) (bool, bool) {
	raw := c.Query("active_only")
	if raw == "" {
		return false, true
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return false, false
	}
	return parsed, true
}

func listDictionary[T any](c *gin.Context, svc *service.DictionaryService[T]) {
	activeOnly, ok := activeOnlyQuery(c)
	if !ok {
		return
	}
	entries, err := svc.List(activeOnly)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, entries)
}

func createDictionary[T any](c *gin.Context, svc *service.DictionaryService[T], rules []mappedHandlerError) {
	var req DictionaryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	entry, err := svc.Create(req.Name)
	if err != nil {
		respondWithMappedError(c, err, rules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, entry)
}

func updateDictionary[T any](c *gin.Context, svc *service.DictionaryService[T], rules []mappedHandlerError) {
	var req DictionaryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	entry, err := svc.Update(c.Request.Context(), c.Param("id"), service.UpdateDictionaryInput{
		Name:     req.Name,
		IsActive: req.IsActive,
	})
	if err != nil {
		respondWithMappedError(c, err, rules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, entry)
}

// deactivateDictionary DELETE 只停用，历史商品仍可引用
func deactivateDictionary[T any](c *gin.Context, svc *service.DictionaryService[T], rules []mappedHandlerError) {
	entry, err := svc.Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithMappedError(c, err, rules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, entry)
}

// ListCategories 分类列表
func (h *Handler) ListCategories(c *gin.Context) { listDictionary(c, h.CategoryService) }

// CreateCategory 创建分类
func (h *Handler) CreateCategory(c *gin.Context) {
	createDictionary(c, h.CategoryService, categoryErrorRules)
}

// UpdateCategory 更新分类
func (h *Handler) UpdateCategory(c *gin.Context) {
	updateDictionary(c, h.CategoryService, categoryErrorRules)
}

// DeleteCategory 停用分类
func (h *Handler) DeleteCategory(c *gin.Context) {
	deactivateDictionary(c, h.CategoryService, categoryErrorRules)
}

func (h *Handler) ListSizes(c *gin.Context) { listDictionary(c, h.SizeService) }

func (h *Handler) CreateSize(c *gin.Context) { createDictionary(c, h.SizeService, sizeErrorRules) }

func (h *Handler) UpdateSize(c *gin.Context) { updateDictionary(c, h.SizeService, sizeErrorRules) }

func (h *Handler) DeleteSize(c *gin.Context) {
	deactivateDictionary(c, h.SizeService, sizeErrorRules)
}
