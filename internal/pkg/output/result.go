// Package output форматирует результат разового вызова инструмента
// для командной строки в JSON или текстовом виде.
package output

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/dispatch"
)

// StatusSuccess и StatusError - возможные значения поля Status в Result.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// APIVersion - версия формата Result.
const APIVersion = "v1"

// Result - структурированный результат вызова инструмента.
type Result struct {
	// Status содержит статус выполнения: "success" или "error".
	Status string `json:"status"`

	// Tool содержит имя вызванного инструмента.
	Tool string `json:"tool"`

	// Data - содержимое Envelope. JSON текст встраивается как есть,
	// остальной текст выводится строкой.
	Data any `json:"data,omitempty"`

	// Error заполняется только при status="error".
	Error *ErrorInfo `json:"error,omitempty"`

	Metadata *Metadata `json:"metadata,omitempty"`
}

// ErrorInfo описывает ошибку.
// ВАЖНО: Message НЕ ДОЛЖЕН содержать секреты!
type ErrorInfo struct {
	// Code - код ошибки диспетчеризации (InvalidParams, MethodNotFound).
	// Для доменных ошибок код уже входит в Message.
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Metadata содержит метаданные вызова.
type Metadata struct {
	DurationMs int64  `json:"duration_ms"`
	TraceID    string `json:"trace_id,omitempty"`
	APIVersion string `json:"api_version"`
}

// FromEnvelope строит Result из Envelope диспетчера.
func FromEnvelope(tool string, env *dispatch.Envelope, duration time.Duration, traceID string) *Result {
	res := &Result{
		Status:   StatusSuccess,
		Tool:     tool,
		Metadata: newMetadata(duration, traceID),
	}
	if env == nil {
		return res
	}

	text := envelopeText(env)
	if env.IsError {
		res.Status = StatusError
		res.Error = &ErrorInfo{Message: text}
		return res
	}
	if json.Valid([]byte(text)) {
		res.Data = json.RawMessage(text)
	} else if text != "" {
		res.Data = text
	}
	return res
}

// FromError строит Result для ошибки диспетчеризации или конфигурации.
func FromError(tool string, err error, duration time.Duration, traceID string) *Result {
	info := &ErrorInfo{Message: err.Error()}
	var de *dispatch.Error
	if errors.As(err, &de) {
		info = &ErrorInfo{Code: de.Code.String(), Message: de.Message}
	}
	return &Result{
		Status:   StatusError,
		Tool:     tool,
		Error:    info,
		Metadata: newMetadata(duration, traceID),
	}
}

func newMetadata(duration time.Duration, traceID string) *Metadata {
	return &Metadata{
		DurationMs: duration.Milliseconds(),
		TraceID:    traceID,
		APIVersion: APIVersion,
	}
}

// envelopeText склеивает текстовые блоки Envelope.
func envelopeText(env *dispatch.Envelope) string {
	if len(env.Content) == 1 {
		return env.Content[0].Text
	}
	parts := make([]string, 0, len(env.Content))
	for _, c := range env.Content {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, "\n")
}
