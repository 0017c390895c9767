package public

import "github.com/wardrobe-ledger/internal/provider"

// Handler 公开接口处理器入口
// 说明：该处理器仅用于无需登录的健康检查与前端引导配置。
type Handler struct {
	*provider.Container
}

// New 创建公开接口处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
