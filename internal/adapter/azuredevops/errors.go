package azuredevops

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// maxErrorBody ограничивает часть тела ответа, попадающую в текст ошибки.
const maxErrorBody = 512

// ResponseError возвращается для любого неуспешного ответа Azure DevOps.
type ResponseError struct {
	// StatusCode - HTTP статус ответа.
	StatusCode int
	// Status - текст строки статуса, например "404 Not Found".
	Status string
	// Method и URL определяют запрос. URL без query string.
	Method string
	URL    string
	// Body - тело ответа без изменений.
	Body []byte
}

// Error реализует интерфейс error.
func (e *ResponseError) Error() string {
	msg := e.ServerMessage()
	if msg == "" {
		msg = truncate(string(e.Body), maxErrorBody)
	}
	if msg == "" {
		return fmt.Sprintf("Azure DevOps API error: %s (%s %s)", e.Status, e.Method, e.URL)
	}
	return fmt.Sprintf("Azure DevOps API error: %s (%s %s): %s", e.Status, e.Method, e.URL, msg)
}

// ServerMessage возвращает поле "message" тела ошибки Azure DevOps.
func (e *ResponseError) ServerMessage() string {
	if !gjson.ValidBytes(e.Body) {
		return ""
	}
	return gjson.GetBytes(e.Body, "message").String()
}

// TypeKey возвращает поле "typeKey" тела ошибки Azure DevOps,
// например "WikiNotFoundException" или "WikiPageNotFoundException".
func (e *ResponseError) TypeKey() string {
	if !gjson.ValidBytes(e.Body) {
		return ""
	}
	return gjson.GetBytes(e.Body, "typeKey").String()
}

// IsStatus сообщает, является ли err *ResponseError с указанным статусом.
func IsStatus(err error, status int) bool {
	var respErr *ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == status
}

// IsNotFound сообщает, является ли err ответом 404.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
