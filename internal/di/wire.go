//go:build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/config"
)

//go:generate wire

// ProviderSet объединяет все провайдеры процесса.
// Используется в InitializeApp для построения графа зависимостей.
//
// При добавлении новых провайдеров:
// 1. Создать функцию провайдера в providers.go
// 2. Добавить её в ProviderSet
// 3. Перегенерировать: go generate ./internal/di/...
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideMetricsCollector,
	ProvideTracerProvider,
	ProvideConnectionCache,
	ProvideRegistry,
	ProvideDispatcher,
	ProvideMCPServer,
	wire.Struct(new(App), "*"),
)

// InitializeApp создаёт App через Wire DI.
// Принимает Config, загруженный через config.Load().
//
// Wire генерирует реализацию этой функции в wire_gen.go.
//
// Пример использования:
//
//	cfg, err := config.Load(path)
//	if err != nil {
//	    return err
//	}
//	app, err := di.InitializeApp(cfg)
//	if err != nil {
//	    return err
//	}
//	if err := app.Initialize(overrides); err != nil {
//	    return err
//	}
//	return app.Server.ServeStdio(ctx, os.Stdin, os.Stdout)
func InitializeApp(cfg *config.Config) (*App, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
