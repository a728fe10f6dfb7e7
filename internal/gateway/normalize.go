package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/adapter/azuredevops"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/apperrors"
)

// Значения typeKey в теле ошибок wiki API.
const (
	typeKeyWikiNotFound     = "WikiNotFoundException"
	typeKeyWikiPageNotFound = "WikiPageNotFoundException"
)

// Сообщения транспортных сбоев без HTTP-ответа.
const (
	MsgRequestCancelled = "request cancelled"
	MsgRequestFailed    = "backend request failed"
)

// ErrorContext описывает ресурс, к которому относился неудачный вызов.
type ErrorContext struct {
	// Resource - имя ресурса для NotFoundError, например "Pull request 7".
	Resource string
	// WikiID задаёт wiki-контекст: 404 становится WikiNotFound или WikiPageNotFound.
	WikiID string
	// Path - путь страницы внутри wiki.
	Path string
	// WikiLookup - ошибка получена при поиске самой wiki.
	WikiLookup bool
}

// Normalize переводит любую ошибку вызова в *apperrors.AppError.
// Уже категоризированные ошибки возвращаются без изменений.
func Normalize(err error, ec ErrorContext) *apperrors.AppError {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var respErr *azuredevops.ResponseError
	if errors.As(err, &respErr) {
		return normalizeResponse(respErr, ec)
	}

	// Текст причины попадает в Error() через Cause, в Message его не дублируем.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewAPIError(0, MsgRequestCancelled, "", err)
	}
	return apperrors.NewAPIError(0, MsgRequestFailed, "", err)
}

func normalizeResponse(respErr *azuredevops.ResponseError, ec ErrorContext) *apperrors.AppError {
	switch respErr.StatusCode {
	case http.StatusUnauthorized, http.StatusNonAuthoritativeInfo:
		return apperrors.NewAuthenticationError(respErr)
	case http.StatusNotFound:
		if ec.WikiID != "" {
			if ec.WikiLookup || wikiLevelAbsence(respErr) {
				return apperrors.NewWikiNotFoundError(ec.WikiID, respErr)
			}
			return apperrors.NewWikiPageNotFoundError(ec.WikiID, ec.Path, respErr)
		}
		msg := respErr.ServerMessage()
		if ec.Resource != "" {
			msg = fmt.Sprintf("%s not found", ec.Resource)
		}
		if msg == "" {
			msg = "resource not found"
		}
		return apperrors.NewNotFoundError(msg, respErr)
	default:
		msg := respErr.ServerMessage()
		if msg == "" {
			msg = respErr.Status
		}
		return apperrors.NewAPIError(respErr.StatusCode, msg, string(respErr.Body), respErr)
	}
}

// wikiLevelAbsence определяет по телу ответа, что отсутствует сама wiki, а не страница.
func wikiLevelAbsence(respErr *azuredevops.ResponseError) bool {
	switch respErr.TypeKey() {
	case typeKeyWikiNotFound:
		return true
	case typeKeyWikiPageNotFound:
		return false
	}

	text := strings.ToLower(respErr.ServerMessage() + " " + respErr.Status)
	if strings.Contains(text, "page") {
		return false
	}
	return strings.Contains(text, "wiki")
}

// Fail - Normalize для возврата из обработчика как error.
func Fail(err error, ec ErrorContext) error {
	if appErr := Normalize(err, ec); appErr != nil {
		return appErr
	}
	return nil
}
