package admin

import (
	"errors"
	"time"

	"github.com/wardrobe-ledger/internal/http/response"
	"github.com/wardrobe-ledger/internal/models"
	"github.com/wardrobe-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string       `json:"token"`
	Operator  OperatorView `json:"operator"`
	ExpiresAt string       `json:"expires_at"`
}

// OperatorView 操作员信息
type OperatorView struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"display_name"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

func toOperatorView(op *models.Operator) OperatorView {
	if op == nil {
		return OperatorView{}
	}
	return OperatorView{
		ID:          op.ID,
		Username:    op.Username,
		DisplayName: op.DisplayName,
		Role:        op.Role,
		IsActive:    op.IsActive,
		LastLoginAt: op.LastLoginAt,
	}
}

// Login 操作员登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	operator, token, expiresAt, err := h.AuthService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, response.CodeUnauthorized, "error.login_failed", nil)
		case errors.Is(err, service.ErrOperatorDisabled):
			respondError(c, response.CodeUnauthorized, "error.operator_disabled", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, LoginResponse{
		Token:     token,
		Operator:  toOperatorView(operator),
		ExpiresAt: expiresAt.Format(time.RFC3339),
	})
}

// GetMe 当前登录操作员
func (h *Handler) GetMe(c *gin.Context) {
	id, ok := getOperatorID(c)
	if !ok {
		return
	}
	operator, err := h.AuthService.GetOperator(c.Request.Context(), id)
	if err != nil {
		respondWithMappedError(c, err, operatorErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, toOperatorView(operator))
}

// UpdatePasswordRequest 修改密码请求
type UpdatePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// UpdateMyPassword 修改当前操作员密码，成功后旧 token 全部失效
func (h *Handler) UpdateMyPassword(c *gin.Context) {
	id, ok := getOperatorID(c)
	if !ok {
		return
	}

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.AuthService.ChangePassword(c.Request.Context(), id, req.OldPassword, req.NewPassword); err != nil {
		if respondPasswordPolicyError(c, err) {
			return
		}
		respondWithMappedError(c, err, operatorErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, nil)
}
