package auth

import (
	"net/http"

	"github.com/cyphera/cyphera-permissions/internal/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIKeyHeader carries the operator key
const APIKeyHeader = "X-API-Key"

// EnsureOperator rejects requests without a valid operator key. With an
// empty key set every request passes, which is how local runs work.
func EnsureOperator(keys *KeySet) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !keys.Enabled() {
			c.Next()
			return
		}

		if err := keys.Verify(c.GetHeader(APIKeyHeader)); err != nil {
			middleware.LoggerFromContext(c.Request.Context()).Warn("Operator authentication failed",
				zap.String("path", c.FullPath()),
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set("authType", "api_key")
		c.Next()
	}
}
