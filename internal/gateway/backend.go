// Package gateway содержит общие части шлюзов ресурсов: контракт backend,
// сужение Argument Bag в типизированные аргументы и нормализацию ошибок.
//
// Каждый шлюз (пакеты internal/gateway/<family>) получает Env явно:
// конфигурация не читается из глобального состояния.
package gateway

import (
	"context"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/adapter/azuredevops"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/config"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/logging"
)

// Backend выдаёт sub-API текущего подключения. Реализуется connection.Cache.
type Backend interface {
	WorkItems(ctx context.Context) (azuredevops.WorkItemTracking, error)
	Work(ctx context.Context) (azuredevops.Work, error)
	Wiki(ctx context.Context) (azuredevops.Wiki, error)
	Core(ctx context.Context) (azuredevops.Core, error)
	Build(ctx context.Context) (azuredevops.Build, error)
	Git(ctx context.Context) (azuredevops.Git, error)
}

// Env - окружение одного вызова операции.
type Env struct {
	// Target - конфигурация, под которой выполняется вызов.
	Target config.Target
	// Backend - источник sub-API.
	Backend Backend
	// Logger уже содержит атрибуты tool и trace_id.
	Logger logging.Logger
}

// Project возвращает проект конфигурации.
func (e Env) Project() string { return e.Target.Project() }

// Log возвращает логгер окружения или NopLogger.
func (e Env) Log() logging.Logger {
	if e.Logger == nil {
		return logging.NewNopLogger()
	}
	return e.Logger
}
