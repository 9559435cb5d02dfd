package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/perfoevolution-backend/internal/platform/ctxutil"
	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
	"github.com/yungbote/perfoevolution-backend/internal/services"
)

type AuthMiddleware struct {
	log      *logger.Logger
	verifier services.Auth0Verifier
}

func NewAuthMiddleware(baseLog *logger.Logger, verifier services.Auth0Verifier) *AuthMiddleware {
	return &AuthMiddleware{
		log:      baseLog.With("middleware", "AuthMiddleware"),
		verifier: verifier,
	}
}

// RequireAuth verifies the bearer token and attaches the caller identity to
// the request context. Account lookup stays in the handlers because the
// login route runs before the account exists.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearer(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
			})
			return
		}

		identity, err := am.verifier.VerifyToken(c.Request.Context(), tokenString)
		if err != nil {
			am.log.Warn("Token verification failed", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "invalid token", "code": "unauthorized"},
			})
			return
		}

		ctx := ctxutil.WithIdentity(c.Request.Context(), &ctxutil.Identity{
			Sub:   identity.Sub,
			Email: identity.Email,
			Name:  identity.Name,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
