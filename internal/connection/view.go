package connection

import (
	"context"
	"errors"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/adapter/azuredevops"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/gateway"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/apperrors"
)

// View - Backend одного поколения кэша. Получается через Cache.Pin.
// После Initialize все методы View возвращают ConfigurationError.
type View struct {
	cache      *Cache
	generation uint64
}

var _ gateway.Backend = (*View)(nil)

// Generation возвращает поколение, к которому привязан View.
func (v *View) Generation() uint64 { return v.generation }

func (v *View) subAPI(ctx context.Context, kind azuredevops.Kind) (any, error) {
	api, err := v.cache.subAPIAt(ctx, v.generation, kind)
	if errors.Is(err, errStaleGeneration) {
		return nil, apperrors.NewConfigurationError(ErrConfigurationChanged, nil)
	}
	return api, err
}

// WorkItems возвращает sub-API work item tracking поколения View.
func (v *View) WorkItems(ctx context.Context) (azuredevops.WorkItemTracking, error) {
	api, err := v.subAPI(ctx, azuredevops.KindWorkItemTracking)
	return typed[azuredevops.WorkItemTracking](azuredevops.KindWorkItemTracking, api, err)
}

func (v *View) Work(ctx context.Context) (azuredevops.Work, error) {
	api, err := v.subAPI(ctx, azuredevops.KindWork)
	return typed[azuredevops.Work](azuredevops.KindWork, api, err)
}

func (v *View) Wiki(ctx context.Context) (azuredevops.Wiki, error) {
	api, err := v.subAPI(ctx, azuredevops.KindWiki)
	return typed[azuredevops.Wiki](azuredevops.KindWiki, api, err)
}

func (v *View) Core(ctx context.Context) (azuredevops.Core, error) {
	api, err := v.subAPI(ctx, azuredevops.KindCore)
	return typed[azuredevops.Core](azuredevops.KindCore, api, err)
}

func (v *View) Build(ctx context.Context) (azuredevops.Build, error) {
	api, err := v.subAPI(ctx, azuredevops.KindBuild)
	return typed[azuredevops.Build](azuredevops.KindBuild, api, err)
}

func (v *View) Git(ctx context.Context) (azuredevops.Git, error) {
	api, err := v.subAPI(ctx, azuredevops.KindGit)
	return typed[azuredevops.Git](azuredevops.KindGit, api, err)
}
