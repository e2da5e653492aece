package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"cardioscan-server/internal/config"
	"cardioscan-server/internal/service"
	"cardioscan-server/internal/utils"
)

const principalKey = "principal"

// AuthMiddleware creates a middleware for JWT authentication. On success the
// authenticated principal is stored in the request context for downstream
// handlers.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			utils.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(parts[1], cfg.JWTSecret)
		if err != nil {
			utils.Unauthorized(c, "Invalid token")
			c.Abort()
			return
		}

		c.Set(principalKey, service.Principal{
			Username: claims.Username,
			Role:     claims.Role,
		})

		c.Next()
	}
}

// GetPrincipalFromContext returns the authenticated principal set by
// AuthMiddleware.
func GetPrincipalFromContext(c *gin.Context) (service.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return service.Principal{}, false
	}
	p, ok := v.(service.Principal)
	return p, ok
}
