package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/beatmarket-backend/internal/logger"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
)

// ErrorBody тело ответа об ошибке.
type ErrorBody struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// ErrorResponse переводит ошибку в статус и тело ответа. Ошибки без AppError и
// внутренние ошибки маскируются: клиент не видит текст драйвера или стек.
func ErrorResponse(err error) (int, ErrorBody) {
	appErr, ok := apperror.As(err)
	if !ok {
		return http.StatusInternalServerError, ErrorBody{
			Error: "внутренняя ошибка сервера",
			Code:  string(apperror.ErrCodeInternal),
		}
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		return status, ErrorBody{Error: "внутренняя ошибка сервера", Code: string(appErr.Code)}
	}
	return status, ErrorBody{Error: appErr.Message, Code: string(appErr.Code), Details: appErr.Details}
}

// AbortWithError прерывает цепочку и сразу отвечает ошибкой.
func AbortWithError(c *gin.Context, err error) {
	status, body := ErrorResponse(err)
	c.AbortWithStatusJSON(status, body)
}

// ErrorHandler отвечает за ошибки, добавленные через c.Error, если хэндлер сам не записал ответ.
func ErrorHandler(log logrus.FieldLogger) gin.HandlerFunc {
	log = logger.OrDefault(log)
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		status, body := ErrorResponse(err)

		entry := log.WithFields(logrus.Fields{
			"path":   c.FullPath(),
			"method": c.Request.Method,
			"status": status,
		}).WithError(err)
		if status >= http.StatusInternalServerError {
			entry.Error("ошибка обработки запроса")
		} else {
			entry.Debug("запрос отклонён")
		}

		if !c.Writer.Written() {
			c.JSON(status, body)
		}
	}
}
