package common

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/http/middleware"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
)

// CurrentAccountID извлекает ID аккаунта, положенный AuthMiddleware.
func CurrentAccountID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextAccountIDKey)
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	accountID, ok := raw.(uuid.UUID)
	if !ok || accountID == uuid.Nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}
	return accountID, nil
}

// CurrentRole роль из токена, пустая строка для анонимного запроса.
func CurrentRole(c *gin.Context) string {
	return c.GetString(middleware.ContextRoleKey)
}

func IsAdmin(c *gin.Context) bool {
	return CurrentRole(c) == string(valueobject.RoleAdmin)
}

// ParseUUIDParam разбирает UUID из параметра пути.
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(c.Param(paramName))
	if err != nil {
		return uuid.Nil, apperror.Validation("параметр " + paramName + " должен быть валидным UUID")
	}
	return parsed, nil
}

// BindJSON разбирает тело запроса, ошибка binding становится ошибкой валидации.
func BindJSON(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, "некорректное тело запроса")
	}
	return nil
}

// RespondAppError отвечает статусом и телом, соответствующими ошибке,
// и кладёт ошибку в контекст для ErrorHandler.
func RespondAppError(c *gin.Context, err error) {
	_ = c.Error(err)
	status, body := middleware.ErrorResponse(err)
	c.AbortWithStatusJSON(status, body)
}

// RespondJSON отвечает JSON с заданным статусом.
func RespondJSON(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, data)
}

// ParseIntQuery читает целый query параметр с запасным значением.
func ParseIntQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// GetPagination limit/offset из query с ограничениями.
func GetPagination(c *gin.Context) (limit, offset int) {
	limit = ParseIntQuery(c, "limit", 20)
	offset = ParseIntQuery(c, "offset", 0)
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return
}
