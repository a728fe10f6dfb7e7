// Package gatewaytest собирает gateway.Env поверх azdotest.MockClient.
package gatewaytest

import (
	"context"
	"testing"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/adapter/azuredevops"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/adapter/azuredevops/azdotest"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/config"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/gateway"
)

// Project - проект тестовой конфигурации.
const Project = "TestProject"

// Backend отдаёт один мок как все sub-API.
type Backend struct {
	Mock *azdotest.MockClient
	// Err, если задан, возвращается вместо sub-API.
	Err error
}

var _ gateway.Backend = (*Backend)(nil)

func (b *Backend) WorkItems(context.Context) (azuredevops.WorkItemTracking, error) {
	return b.Mock, b.Err
}

func (b *Backend) Work(context.Context) (azuredevops.Work, error) { return b.Mock, b.Err }

func (b *Backend) Wiki(context.Context) (azuredevops.Wiki, error) { return b.Mock, b.Err }

func (b *Backend) Core(context.Context) (azuredevops.Core, error) { return b.Mock, b.Err }

func (b *Backend) Build(context.Context) (azuredevops.Build, error) { return b.Mock, b.Err }

func (b *Backend) Git(context.Context) (azuredevops.Git, error) { return b.Mock, b.Err }

// NewEnv возвращает окружение с новым моком и проектом Project.
func NewEnv(t *testing.T) (gateway.Env, *azdotest.MockClient) {
	t.Helper()
	target, err := config.NewTarget("pat", "org", Project, "")
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	mock := azdotest.NewMockClient()
	return gateway.Env{Target: target, Backend: &Backend{Mock: mock}}, mock
}
