package di

import (
	"context"
	"errors"
	"time"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/config"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/connection"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/dispatch"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/mcpserver"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/logging"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/metrics"
)

// App содержит инициализированные зависимости процесса.
// Создаётся через Wire DI в InitializeApp().
//
// При добавлении новых зависимостей:
// 1. Добавить поле в App struct
// 2. Создать провайдер в providers.go
// 3. Добавить провайдер в ProviderSet в wire.go
// 4. Перегенерировать wire_gen.go: go generate ./internal/di/...
type App struct {
	// Config содержит конфигурацию процесса.
	// Передаётся извне через InitializeApp().
	Config *config.Config

	// Logger предоставляет структурированное логирование.
	// Создаётся через ProvideLogger на основе Config.Logging.
	Logger logging.Logger

	// MetricsCollector собирает метрики вызовов инструментов.
	// Если метрики отключены - используется NopCollector.
	MetricsCollector metrics.Collector

	// TracerShutdown завершает OTel TracerProvider и отправляет буферизированные span-ы.
	// Если трейсинг отключён - nop function.
	TracerShutdown func(context.Context) error

	// Connection - общее подключение к Azure DevOps.
	// До Initialize все доменные операции завершаются ошибкой конфигурации.
	Connection *connection.Cache

	// Dispatcher маршрутизирует вызовы операций к шлюзам.
	Dispatcher *dispatch.Dispatcher

	// Server - MCP сервер поверх Dispatcher.
	Server *mcpserver.Server
}

// Initialize разрешает параметры подключения и привязывает к ним Connection.
// Ошибка имеет вид ConfigurationError.
func (a *App) Initialize(ov config.Overrides) error {
	target, err := a.Config.Resolve(ov)
	if err != nil {
		return err
	}
	a.Connection.Initialize(target)
	return nil
}

// Shutdown отправляет метрики и завершает трейсинг в пределах
// Config.Server.ShutdownTimeout.
func (a *App) Shutdown(ctx context.Context) error {
	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var errs []error
	if err := a.MetricsCollector.Push(ctx); err != nil {
		a.Logger.Warn("metrics push failed", "error", err.Error())
		errs = append(errs, err)
	}
	if err := a.TracerShutdown(ctx); err != nil {
		a.Logger.Warn("tracer shutdown failed", "error", err.Error())
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
