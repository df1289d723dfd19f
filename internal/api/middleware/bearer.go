package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"dream100/prospect-intel-worker/internal/dto"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BearerSecret requires "Authorization: Bearer <secret>". An empty secret disables the check.
func BearerSecret(secret string) gin.HandlerFunc {
	logger := zap.L().Named("BearerSecret")
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		token, ok := extractBearerToken(c.GetHeader("Authorization"))
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			logger.Warn("unauthorized request rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized: invalid callback secret"})
			return
		}
		c.Next()
	}
}

func extractBearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
