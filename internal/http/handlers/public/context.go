package public

import (
	handlershared "github.com/dujiao-next/ledger-engine/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondServiceError(c *gin.Context, err error) {
	handlershared.RespondServiceError(c, err)
}

func idempotencyKey(c *gin.Context, bodyKey string) string {
	return handlershared.IdempotencyKey(c, bodyKey)
}
