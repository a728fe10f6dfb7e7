// Package apperrors предоставляет структурированные ошибки приложения.
// Переименован из errors чтобы избежать конфликта со стандартной библиотекой.
//
// Все ошибки доменного уровня, которые видит MCP клиент, имеют тип *AppError.
// Категория ошибки (Kind) однозначно выводится из Code.
package apperrors

import (
	"errors"
	"fmt"
)

// Коды ошибок в иерархическом формате: CATEGORY.SPECIFIC_ERROR.
// Позволяет grep по категориям: `grep "AZDO\."` для всех ошибок backend.
const (
	// Category: CONFIG - ошибки загрузки и разрешения конфигурации.
	ErrConfigInvalid = "CONFIG.INVALID"
	ErrConfigLoad    = "CONFIG.LOAD_FAILED"

	// Category: ARGS - ошибки аргументов, переданных клиентом.
	ErrArgsValidation = "ARGS.VALIDATION_FAILED"

	// Category: AZDO - ошибки Azure DevOps.
	ErrNotFound         = "AZDO.NOT_FOUND"
	ErrWikiNotFound     = "AZDO.WIKI_NOT_FOUND"
	ErrWikiPageNotFound = "AZDO.WIKI_PAGE_NOT_FOUND"
	ErrAuth             = "AZDO.AUTH_FAILED"
	ErrAPI              = "AZDO.API_FAILED"
)

// Kind - закрытое перечисление категорий ошибок.
// Клиенты сопоставляют ошибки по Kind, а не по тексту сообщения.
type Kind string

// Категории ошибок.
const (
	KindConfiguration    Kind = "ConfigurationError"
	KindValidation       Kind = "ValidationError"
	KindNotFound         Kind = "NotFoundError"
	KindWikiNotFound     Kind = "WikiNotFoundError"
	KindWikiPageNotFound Kind = "WikiPageNotFoundError"
	KindAuthentication   Kind = "AuthenticationError"
	KindAPI              Kind = "ApiError"
)

// codeKinds связывает коды с категориями.
var codeKinds = map[string]Kind{
	ErrConfigInvalid:    KindConfiguration,
	ErrConfigLoad:       KindConfiguration,
	ErrArgsValidation:   KindValidation,
	ErrNotFound:         KindNotFound,
	ErrWikiNotFound:     KindWikiNotFound,
	ErrWikiPageNotFound: KindWikiPageNotFound,
	ErrAuth:             KindAuthentication,
	ErrAPI:              KindAPI,
}

// AppError представляет структурированную ошибку приложения.
// Реализует error interface и поддерживает wrapping через Unwrap().
//
// ВАЖНО: Message НЕ ДОЛЖЕН содержать секреты (PAT, заголовки авторизации).
//
// Пример использования:
//
//	return apperrors.NewAppError(apperrors.ErrConfigLoad,
//	    "failed to read config file",
//	    err)
type AppError struct {
	// Code - машиночитаемый код ошибки в формате CATEGORY.SPECIFIC.
	Code string `json:"code"`

	// Message - человекочитаемое описание ошибки.
	// НЕ ДОЛЖЕН содержать секреты!
	Message string `json:"message"`

	// Field - имя аргумента для ошибок валидации.
	Field string `json:"field,omitempty"`

	// StatusCode - HTTP статус ответа Azure DevOps (если применимо).
	StatusCode int `json:"status,omitempty"`

	// WikiID и Path - идентификаторы ресурса для ошибок wiki.
	WikiID string `json:"wikiId,omitempty"`
	Path   string `json:"path,omitempty"`

	// RawBody - тело ответа backend для ApiError.
	// Не сериализуется: может быть большим и содержать HTML страницы входа.
	RawBody string `json:"-"`

	// Cause - wrapped оригинальная ошибка.
	// Не сериализуется в JSON для безопасности.
	Cause error `json:"-"`
}

// Error реализует интерфейс error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap возвращает wrapped ошибку для errors.Is/As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Kind возвращает категорию ошибки. Для неизвестного кода - KindAPI.
func (e *AppError) Kind() Kind {
	if k, ok := codeKinds[e.Code]; ok {
		return k
	}
	return KindAPI
}

// NewAppError создаёт новый AppError с заданным кодом, сообщением и причиной.
//
// ВАЖНО: message НЕ ДОЛЖЕН содержать секреты!
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigurationError создаёт ошибку конфигурации.
func NewConfigurationError(message string, cause error) *AppError {
	return NewAppError(ErrConfigInvalid, message, cause)
}

// NewValidationError создаёт ошибку валидации аргумента field.
func NewValidationError(field, message string) *AppError {
	return &AppError{
		Code:    ErrArgsValidation,
		Message: message,
		Field:   field,
	}
}

// NewNotFoundError создаёт ошибку "ресурс не найден".
func NewNotFoundError(message string, cause error) *AppError {
	return &AppError{
		Code:       ErrNotFound,
		Message:    message,
		StatusCode: 404,
		Cause:      cause,
	}
}

// NewWikiNotFoundError создаёт ошибку отсутствующей wiki.
func NewWikiNotFoundError(wikiID string, cause error) *AppError {
	return &AppError{
		Code:       ErrWikiNotFound,
		Message:    fmt.Sprintf("Wiki with ID %s not found", wikiID),
		StatusCode: 404,
		WikiID:     wikiID,
		Cause:      cause,
	}
}

// NewWikiPageNotFoundError создаёт ошибку отсутствующей страницы существующей wiki.
func NewWikiPageNotFoundError(wikiID, path string, cause error) *AppError {
	return &AppError{
		Code:       ErrWikiPageNotFound,
		Message:    fmt.Sprintf("Wiki page not found at path %s", path),
		StatusCode: 404,
		WikiID:     wikiID,
		Path:       path,
		Cause:      cause,
	}
}

// NewAuthenticationError создаёт ошибку аутентификации.
func NewAuthenticationError(cause error) *AppError {
	return &AppError{
		Code:       ErrAuth,
		Message:    "Authentication failed",
		StatusCode: 401,
		Cause:      cause,
	}
}

// NewAPIError создаёт общую ошибку backend со статусом и телом ответа.
// statusCode == 0 означает, что ответ не был получен (транспорт, отмена).
func NewAPIError(statusCode int, message, rawBody string, cause error) *AppError {
	return &AppError{
		Code:       ErrAPI,
		Message:    message,
		StatusCode: statusCode,
		RawBody:    rawBody,
		Cause:      cause,
	}
}

// KindOf возвращает категорию ошибки err.
// Второе значение false, если err не содержит *AppError.
func KindOf(err error) (Kind, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind(), true
	}
	return "", false
}

// IsKind проверяет категорию ошибки с поддержкой wrapped errors.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
