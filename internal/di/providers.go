package di

import (
	"context"
	"log/slog"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/config"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/connection"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/constants"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/dispatch"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/gateway/board"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/gateway/pipeline"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/gateway/project"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/gateway/pullrequest"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/gateway/wiki"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/gateway/workitem"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/mcpserver"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/logging"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/metrics"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/tracing"
)

// ProvideLogger создаёт Logger на основе Config.Logging.
// Использует logging.NewLogger() для создания SlogAdapter.
//
// Пустые поля заменяются значениями logging.DefaultConfig():
//   - Level: "info"
//   - Format: "text"
//   - Output: "stderr"
func ProvideLogger(cfg *config.Config) logging.Logger {
	logCfg := logging.DefaultConfig()
	if cfg == nil {
		return logging.NewLogger(logCfg)
	}

	lc := cfg.Logging
	if lc.Level != "" {
		logCfg.Level = lc.Level
	}
	if lc.Format != "" {
		logCfg.Format = lc.Format
	}
	if lc.Output != "" {
		logCfg.Output = lc.Output
	}
	if lc.FilePath != "" {
		logCfg.FilePath = lc.FilePath
	}
	// env-default гарантирует ненулевые значения, 0 MB для lumberjack смысла не имеет.
	if lc.MaxSize > 0 {
		logCfg.MaxSize = lc.MaxSize
	}
	if lc.MaxBackups > 0 {
		logCfg.MaxBackups = lc.MaxBackups
	}
	if lc.MaxAge > 0 {
		logCfg.MaxAge = lc.MaxAge
	}
	logCfg.Compress = lc.Compress

	return logging.NewLogger(logCfg)
}

// ProvideMetricsCollector создаёт Collector на основе Config.Metrics.
// При Enabled=false или ошибке создания возвращает NopCollector.
func ProvideMetricsCollector(cfg *config.Config, logger logging.Logger) metrics.Collector {
	if cfg == nil || !cfg.Metrics.Enabled {
		return metrics.NewNopCollector()
	}

	collector, err := metrics.NewCollector(metrics.Config{
		Enabled:        cfg.Metrics.Enabled,
		PushgatewayURL: cfg.Metrics.PushgatewayURL,
		JobName:        cfg.Metrics.JobName,
		Timeout:        cfg.Metrics.Timeout,
		InstanceLabel:  cfg.Metrics.InstanceLabel,
	}, logger)
	if err != nil {
		logger.Error("ошибка создания MetricsCollector, используется NopCollector",
			slog.String("error", err.Error()),
		)
		return metrics.NewNopCollector()
	}
	return collector
}

// ProvideTracerProvider создаёт и регистрирует OTel TracerProvider.
// Возвращает shutdown function. При Enabled=false или ошибке - nop shutdown.
func ProvideTracerProvider(cfg *config.Config, logger logging.Logger) func(context.Context) error {
	if cfg == nil || !cfg.Tracing.Enabled {
		return tracing.NewNopTracerProvider()
	}

	shutdown, err := tracing.NewTracerProvider(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Endpoint:     cfg.Tracing.Endpoint,
		ServiceName:  cfg.Tracing.ServiceName,
		Version:      constants.Version,
		Environment:  cfg.Tracing.Environment,
		Insecure:     cfg.Tracing.Insecure,
		Timeout:      cfg.Tracing.Timeout,
		SamplingRate: cfg.Tracing.SamplingRate,
	}, logger)
	if err != nil {
		logger.Error("ошибка создания TracerProvider, трейсинг отключён",
			slog.String("error", err.Error()),
		)
		return tracing.NewNopTracerProvider()
	}
	return shutdown
}

// ProvideConnectionCache создаёт пустой кэш подключения.
// Транспортные настройки берутся из Config.AzureDevOps.
func ProvideConnectionCache(cfg *config.Config, logger logging.Logger) *connection.Cache {
	var adoCfg config.AzureDevOpsConfig
	if cfg != nil {
		adoCfg = cfg.AzureDevOps
	}
	return connection.NewCache(connection.ClientFactory(adoCfg, nil, logger), logger)
}

// ProvideRegistry собирает каталог операций всех шлюзов.
// Порядок: work items, boards, wikis, projects, pipelines, pull requests.
func ProvideRegistry() *dispatch.Registry {
	var handlers []dispatch.Handler
	for _, family := range [][]dispatch.Handler{
		workitem.Operations(),
		board.Operations(),
		wiki.Operations(),
		project.Operations(),
		pipeline.Operations(),
		pullrequest.Operations(),
	} {
		handlers = append(handlers, family...)
	}
	return dispatch.NewRegistry(handlers...)
}

// ProvideDispatcher создаёт Dispatcher поверх каталога и кэша подключения.
func ProvideDispatcher(registry *dispatch.Registry, cache *connection.Cache, logger logging.Logger, collector metrics.Collector) *dispatch.Dispatcher {
	return dispatch.NewDispatcher(registry, cache, logger, collector)
}

// ProvideMCPServer регистрирует каталог Dispatcher в MCP сервере.
// Имя сервера берётся из Config.Server.Name, по умолчанию constants.ServerName.
func ProvideMCPServer(cfg *config.Config, dispatcher *dispatch.Dispatcher, logger logging.Logger) (*mcpserver.Server, error) {
	name := constants.ServerName
	if cfg != nil && cfg.Server.Name != "" {
		name = cfg.Server.Name
	}
	return mcpserver.New(name, constants.Version, dispatcher, logger)
}
