// Package tracing генерирует trace ID для корреляции логов и настраивает
// OpenTelemetry TracerProvider для спанов вызовов инструментов и HTTP запросов.
//
// Формат trace ID: 32-символьный hex string (16 байт), совместимый с W3C Trace Context.
package tracing

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

var fallbackCounter atomic.Uint64

// GenerateTraceID генерирует уникальный trace ID из crypto/rand.
// При ошибке crypto/rand используется timestamp и счётчик.
func GenerateTraceID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fallbackTraceID()
	}
	return hex.EncodeToString(b)
}

// fallbackTraceID всегда даёт ровно 32 hex символа: 16 на timestamp и 16 на счётчик.
func fallbackTraceID() string {
	counter := fallbackCounter.Add(1)
	timestamp := uint64(time.Now().UnixNano()) //nolint:gosec // только для уникальности
	return fmt.Sprintf("%016x%016x", timestamp, counter)
}

type traceIDKey struct{}

// WithTraceID возвращает context с trace ID.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, id)
}

// TraceIDFromContext извлекает trace ID. Пустая строка, если не установлен.
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceIDKey{}).(string); ok {
		return id
	}
	return ""
}
