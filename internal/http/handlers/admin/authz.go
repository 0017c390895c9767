package admin

import (
	"errors"
	"net/url"
	"strings"

	"github.com/wardrobe-ledger/internal/authz"
	handlershared "github.com/wardrobe-ledger/internal/http/handlers/shared"
	"github.com/wardrobe-ledger/internal/http/response"
	"github.com/wardrobe-ledger/internal/logger"

	"github.com/gin-gonic/gin"
)

type authzPolicyPayload struct {
	Role   string `json:"role" binding:"required"`
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

type authzOperatorPolicyPayload struct {
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// GetAuthzMe 当前操作员权限快照
func (h *Handler) GetAuthzMe(c *gin.Context) {
	operatorID, ok := getOperatorID(c)
	if !ok {
		return
	}
	role := getOperatorRole(c)
	policies, err := h.AuthzService.GetEffectivePolicies(operatorID, role)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{
		"operator_id": operatorID,
		"role":        role,
		"policies":    policies,
	})
}

// ListAuthzRoles 角色列表
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, roles)
}

// GetAuthzRolePolicies 角色策略
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	role := decodeRoleParam(c.Param("role"))
	if strings.TrimSpace(role) == "" {
		respondError(c, response.CodeBadRequest, "error.role_invalid", nil)
		return
	}
	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.role_invalid", err)
		return
	}
	response.Success(c, policies)
}

// GrantAuthzPolicy 授予角色策略，例如允许店员查看报表
func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthzService.GrantRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	operatorID := c.GetString(handlershared.ContextOperatorID)
	logger.Infow("authz_policy_granted",
		"operator_id", operatorID,
		"role", req.Role,
		"object", req.Object,
		"action", req.Action,
	)
	response.Success(c, nil)
}

// RevokeAuthzPolicy 撤销角色策略
func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthzService.RevokeRolePolicy(req.Role, req.Object, req.Action); err != nil {
		if errors.Is(err, authz.ErrProtectedRole) {
			respondError(c, response.CodeForbidden, "error.role_protected", nil)
			return
		}
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	operatorID := c.GetString(handlershared.ContextOperatorID)
	logger.Infow("authz_policy_revoked",
		"operator_id", operatorID,
		"role", req.Role,
		"object", req.Object,
		"action", req.Action,
	)
	response.Success(c, nil)
}

// GrantOperatorPolicy 为单个操作员追加授权
func (h *Handler) GrantOperatorPolicy(c *gin.Context) {
	targetID := strings.TrimSpace(c.Param("id"))
	target, err := h.OperatorRepo.GetByID(targetID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	if target == nil {
		respondError(c, response.CodeNotFound, "error.operator_not_found", nil)
		return
	}
	var req authzOperatorPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthzService.GrantOperatorPolicy(target.ID, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	operatorID := c.GetString(handlershared.ContextOperatorID)
	logger.Infow("authz_operator_policy_granted",
		"operator_id", operatorID,
		"target_operator_id", target.ID,
		"object", req.Object,
		"action", req.Action,
	)
	response.Success(c, nil)
}

func decodeRoleParam(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}
