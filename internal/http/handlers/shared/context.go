package shared

import (
	"strings"

	"github.com/dujiao-next/ledger-engine/internal/constants"

	"github.com/gin-gonic/gin"
)

// IdempotencyKey 解析幂等键，请求头优先于请求体字段
func IdempotencyKey(c *gin.Context, bodyKey string) string {
	key := strings.TrimSpace(c.GetHeader(constants.HeaderIdempotencyKey))
	if key == "" {
		key = strings.TrimSpace(bodyKey)
	}
	if key != "" {
		c.Set(constants.ContextKeyIdempotencyKey, key)
	}
	return key
}

// TrimmedParam 读取去除空白的路径参数
func TrimmedParam(c *gin.Context, name string) string {
	return strings.TrimSpace(c.Param(name))
}

// TrimmedQuery 读取去除空白的查询参数
func TrimmedQuery(c *gin.Context, name string) string {
	return strings.TrimSpace(c.Query(name))
}
