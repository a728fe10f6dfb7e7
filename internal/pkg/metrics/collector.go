// Package metrics собирает метрики вызовов MCP инструментов и отправляет
// их в Prometheus Pushgateway при завершении сервера.
package metrics

import (
	"context"
	"time"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/logging"
)

// Collector определяет интерфейс для сбора метрик.
// Реализации: PrometheusCollector и NopCollector.
type Collector interface {
	// RecordToolStart отмечает начало вызова инструмента (in-flight gauge).
	RecordToolStart(tool, project string)

	// RecordToolEnd записывает завершение вызова.
	// kind - категория ошибки, пустая строка при успехе.
	RecordToolEnd(tool, project, kind string, duration time.Duration, success bool)

	// Push отправляет метрики в Pushgateway.
	// Ошибки отправки логируются, метод всегда возвращает nil.
	Push(ctx context.Context) error
}

// NewCollector создаёт Collector на основе конфигурации.
// Выключенные метрики дают NopCollector.
func NewCollector(config Config, logger logging.Logger) (Collector, error) {
	if !config.Enabled {
		return NewNopCollector(), nil
	}
	return NewPrometheusCollector(config, logger)
}

// NopCollector - no-op реализация Collector.
type NopCollector struct{}

// NewNopCollector создаёт NopCollector.
func NewNopCollector() *NopCollector {
	return &NopCollector{}
}

func (c *NopCollector) RecordToolStart(_, _ string) {}

func (c *NopCollector) RecordToolEnd(_, _, _ string, _ time.Duration, _ bool) {}

func (c *NopCollector) Push(_ context.Context) error { return nil }
