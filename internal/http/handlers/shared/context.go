package shared

import (
	"strings"

	"github.com/wardrobe-ledger/internal/http/response"

	"github.com/gin-gonic/gin"
)

// 鉴权中间件写入的上下文键
const (
	ContextOperatorID = "operator_id"
	ContextUsername   = "username"
	ContextRole       = "operator_role"
)

// GetContextStringWithKeys 从上下文读取字符串值并统一处理错误响应。
func GetContextStringWithKeys(c *gin.Context, key, typeInvalidKey string) (string, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return "", false
	}

	v, ok := value.(string)
	if !ok {
		RespondError(c, response.CodeInternal, typeInvalidKey, nil)
		return "", false
	}
	if strings.TrimSpace(v) == "" {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return "", false
	}
	return v, true
}

// ContextRoleValue 读取当前操作员角色，未登录返回空串
func ContextRoleValue(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(ContextRole)
}
