package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest        ErrorCode = "BAD_REQUEST"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidTransition ErrorCode = "INVALID_STATE_TRANSITION"
	ErrCodeDatabaseError     ErrorCode = "DATABASE_ERROR"
	ErrCodeTooManyRequests   ErrorCode = "TOO_MANY_REQUESTS"
)

// AppError типизированная ошибка приложения. Details несут машинно-читаемый контекст
// (например, текущий и целевой статус при недопустимом переходе).
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
	Details    map[string]string
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Validation возвращает ошибку валидации входных данных.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// NotFound возвращает ошибку отсутствующей сущности.
func NotFound(message string) *AppError {
	return New(ErrCodeNotFound, message)
}

// InvalidTransition сообщает о недопустимом переходе конечного автомата.
// Ошибка всегда возвращается до изменения состояния.
func InvalidTransition(entity, current, target string) *AppError {
	err := New(ErrCodeInvalidTransition,
		fmt.Sprintf("%s: переход %s -> %s недопустим", entity, current, target))
	err.Details = map[string]string{
		"entity":  entity,
		"current": current,
		"target":  target,
	}
	return err
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeInvalidTransition:
		return http.StatusConflict
	case ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// As извлекает AppError из цепочки ошибок.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func hasCode(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

func IsForbidden(err error) bool {
	return hasCode(err, ErrCodeForbidden)
}

func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

func IsConflict(err error) bool {
	return hasCode(err, ErrCodeConflict)
}

func IsInvalidTransition(err error) bool {
	return hasCode(err, ErrCodeInvalidTransition)
}

var (
	ErrAccountNotFound             = New(ErrCodeNotFound, "аккаунт не найден")
	ErrVerificationRequestNotFound = New(ErrCodeNotFound, "заявка на верификацию не найдена")
	ErrEscrowNotFound              = New(ErrCodeNotFound, "escrow не найден")
	ErrDisputeNotFound             = New(ErrCodeNotFound, "спор не найден")
	ErrUnauthorized                = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden                   = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials          = New(ErrCodeUnauthorized, "неверные учетные данные")
	ErrConcurrentUpdate            = New(ErrCodeConflict, "состояние изменилось, повторите запрос")
)
