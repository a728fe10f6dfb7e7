// Package logging предоставляет интерфейс и реализации для структурированного логирования.
package logging

import (
	"log/slog"
)

// Logger определяет интерфейс для структурированного логирования.
//
// Все методы принимают сообщение и опциональные key-value пары:
//
//	logger.Info("Вызов инструмента завершён", "tool", name, "duration_ms", 150)
//
// ВАЖНО: Logger пишет ТОЛЬКО в stderr или файл, никогда в stdout.
// stdout принадлежит MCP stdio транспорту.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With возвращает новый Logger с добавленными атрибутами.
	//
	//	logger.With("trace_id", traceID, "tool", name).Info("Вызов инструмента")
	With(args ...any) Logger
}

// SlogAdapter реализует Logger поверх slog из stdlib.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter создаёт SlogAdapter. При nil logger используется slog.Default().
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
		logger.Warn("logging: nil slog.Logger passed to NewSlogAdapter, using default")
	}
	return &SlogAdapter{logger: logger}
}

func (s *SlogAdapter) Debug(msg string, args ...any) { s.logger.Debug(msg, args...) }
func (s *SlogAdapter) Info(msg string, args ...any)  { s.logger.Info(msg, args...) }
func (s *SlogAdapter) Warn(msg string, args ...any)  { s.logger.Warn(msg, args...) }
func (s *SlogAdapter) Error(msg string, args ...any) { s.logger.Error(msg, args...) }

// With возвращает новый Logger с добавленными атрибутами.
func (s *SlogAdapter) With(args ...any) Logger {
	return &SlogAdapter{logger: s.logger.With(args...)}
}

// NopLogger - реализация Logger, которая ничего не делает.
// Используется в тестах для отключения логирования.
type NopLogger struct{}

// NewNopLogger создаёт Logger, который игнорирует все сообщения.
func NewNopLogger() Logger {
	return &NopLogger{}
}

func (n *NopLogger) Debug(_ string, _ ...any) {}
func (n *NopLogger) Info(_ string, _ ...any)  {}
func (n *NopLogger) Warn(_ string, _ ...any)  {}
func (n *NopLogger) Error(_ string, _ ...any) {}

// With возвращает тот же NopLogger: атрибуты всё равно игнорируются.
func (n *NopLogger) With(_ ...any) Logger {
	return n
}
