package azuredevops

import (
	"context"
	"net/http"
	"strconv"
)

// BuildClient реализует Build.
type BuildClient struct {
	c *Client
}

// ListDefinitions возвращает определения сборок проекта.
func (b *BuildClient) ListDefinitions(ctx context.Context, project string) ([]BuildDefinitionReference, error) {
	return getList[BuildDefinitionReference](ctx, b.c, []string{project, "_apis", "build", "definitions"}, nil)
}

// GetDefinition возвращает определение сборки вместе с репозиторием.
func (b *BuildClient) GetDefinition(ctx context.Context, project string, definitionID int) (*BuildDefinition, error) {
	var out BuildDefinition
	_, err := b.c.do(ctx, request{
		method:   http.MethodGet,
		segments: []string{project, "_apis", "build", "definitions", strconv.Itoa(definitionID)},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// QueueBuild ставит сборку в очередь.
func (b *BuildClient) QueueBuild(ctx context.Context, project string, req QueueBuildRequest) (*BuildRun, error) {
	var out BuildRun
	_, err := b.c.do(ctx, request{
		method:   http.MethodPost,
		segments: []string{project, "_apis", "build", "builds"},
		body:     req,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
