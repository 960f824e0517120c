package public

import (
	handlershared "github.com/surf-station/storefront/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getSessionID(c *gin.Context) (string, bool) {
	return handlershared.GetSessionID(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}
