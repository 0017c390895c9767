package admin

import "github.com/wardrobe-ledger/internal/provider"

// Handler 门店后台接口处理器入口
// 说明：登录之外的接口均需鉴权，权限由 RBAC 中间件判定。
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
