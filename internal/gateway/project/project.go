// Package project - шлюз операций уровня организации.
package project

import (
	"context"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/dispatch"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/gateway"
)

// OpList - имя операции списка проектов.
const OpList = "list_projects"

// Summary - элемент результата list_projects.
type Summary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	URL            string `json:"url,omitempty"`
	State          string `json:"state,omitempty"`
	Visibility     string `json:"visibility,omitempty"`
	LastUpdateTime string `json:"lastUpdateTime,omitempty"`
}

// Operations возвращает операции шлюза.
func Operations() []dispatch.Handler {
	return []dispatch.Handler{
		dispatch.Operation{
			Name:        OpList,
			Description: "List all projects in the Azure DevOps organization",
			Schema:      dispatch.Object(map[string]dispatch.Schema{}),
			Run:         list,
		},
	}
}

func list(ctx context.Context, env gateway.Env, _ gateway.Args) (any, error) {
	api, err := env.Backend.Core(ctx)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{})
	}
	projects, err := api.ListProjects(ctx)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{})
	}

	out := make([]Summary, 0, len(projects))
	for _, p := range projects {
		out = append(out, Summary{
			ID:             p.ID,
			Name:           p.Name,
			Description:    p.Description,
			URL:            p.URL,
			State:          p.State,
			Visibility:     p.Visibility,
			LastUpdateTime: p.LastUpdateTime,
		})
	}
	return out, nil
}
