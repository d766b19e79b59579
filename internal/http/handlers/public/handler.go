package public

import "github.com/dujiao-next/ledger-engine/internal/provider"

// Handler 公开接口处理器入口
// 说明：该处理器用于业务方调用的账本写入与查询 API。
type Handler struct {
	*provider.Container
}

// New 创建公开接口处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
