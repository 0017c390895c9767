package admin

import (
	"github.com/wardrobe-ledger/internal/http/response"
	"github.com/wardrobe-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateOperatorRequest 新建操作员请求
type CreateOperatorRequest struct {
	Username    string `json:"username" binding:"required"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password" binding:"required"`
	Role        string `json:"role"`
}

// UpdateOperatorRequest 更新操作员请求
type UpdateOperatorRequest struct {
	DisplayName *string `json:"display_name"`
	Role        *string `json:"role"`
	IsActive    *bool   `json:"is_active"`
	Password    *string `json:"password"`
}

// ListOperators 操作员列表
func (h *Handler) ListOperators(c *gin.Context) {
	operators, err := h.AuthService.ListOperators(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	views := make([]OperatorView, 0, len(operators))
	for i := range operators {
		views = append(views, toOperatorView(&operators[i]))
	}
	response.Success(c, views)
}

// CreateOperator 新建操作员
func (h *Handler) CreateOperator(c *gin.Context) {
	var req CreateOperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	operator, err := h.AuthService.CreateOperator(c.Request.Context(), service.CreateOperatorInput{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Password:    req.Password,
		Role:        req.Role,
	})
	if err != nil {
		if respondPasswordPolicyError(c, err) {
			return
		}
		respondWithMappedError(c, err, operatorErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, toOperatorView(operator))
}

// UpdateOperator 更新操作员；改角色、停用或重置密码会使其 token 失效
func (h *Handler) UpdateOperator(c *gin.Context) {
	var req UpdateOperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	operator, err := h.AuthService.UpdateOperator(c.Request.Context(), c.Param("id"), service.UpdateOperatorInput{
		DisplayName: req.DisplayName,
		Role:        req.Role,
		IsActive:    req.IsActive,
		Password:    req.Password,
	})
	if err != nil {
		if respondPasswordPolicyError(c, err) {
			return
		}
		respondWithMappedError(c, err, operatorErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, toOperatorView(operator))
}
