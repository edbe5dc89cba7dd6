package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/beatmarket-backend/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextAccountIDKey = "accountID"
	ContextRoleKey      = "role"
)

// AuthMiddleware проверяет JWT access токен из заголовка Authorization.
func AuthMiddleware(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			AbortWithError(c, apperror.ErrUnauthorized)
			return
		}

		accountID, role, err := tokens.ParseAccess(strings.TrimPrefix(auth, "Bearer "))
		if err != nil || accountID == uuid.Nil {
			AbortWithError(c, apperror.New(apperror.ErrCodeUnauthorized, "токен невалиден"))
			return
		}

		c.Set(ContextAccountIDKey, accountID)
		c.Set(ContextRoleKey, role)
		c.Next()
	}
}

// RequireRole пропускает только указанные роли. Ставится после AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRoleKey)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		AbortWithError(c, apperror.ErrForbidden)
	}
}
