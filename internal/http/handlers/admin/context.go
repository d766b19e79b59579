package admin

import (
	handlershared "github.com/dujiao-next/ledger-engine/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func idempotencyKey(c *gin.Context, bodyKey string) string {
	return handlershared.IdempotencyKey(c, bodyKey)
}

func listPagination(c *gin.Context) (int, int) {
	return handlershared.ParsePagination(c)
}
