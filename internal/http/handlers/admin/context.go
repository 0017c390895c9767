package admin

import (
	"time"

	handlershared "github.com/wardrobe-ledger/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getOperatorID(c *gin.Context) (string, bool) {
	return handlershared.GetContextStringWithKeys(c, handlershared.ContextOperatorID, "error.internal")
}

func getOperatorRole(c *gin.Context) string {
	return handlershared.ContextRoleValue(c)
}

// location 日期参数与日报使用的时区
func (h *Handler) location() *time.Location {
	if h == nil || h.Container == nil || h.Config == nil {
		return time.Local
	}
	return h.Config.Inventory.Location()
}
