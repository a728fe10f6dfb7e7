// Package pipeline - шлюз операций над определениями сборок и их запуском.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/adapter/azuredevops"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/constants"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/dispatch"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/gateway"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/apperrors"
)

// Имена операций.
const (
	OpList    = "list_pipelines"
	OpTrigger = "trigger_pipeline"
)

// ProjectInfo - ссылка на проект в результатах.
type ProjectInfo struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Info - элемент результата list_pipelines.
type Info struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Path        string      `json:"path,omitempty"`
	Status      string      `json:"status,omitempty"`
	Revision    int         `json:"revision,omitempty"`
	Type        string      `json:"type,omitempty"`
	CreatedDate string      `json:"createdDate,omitempty"`
	Project     ProjectInfo `json:"project"`
}

// DefinitionInfo - определение, по которому поставлена сборка.
type DefinitionInfo struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Run - результат trigger_pipeline.
type Run struct {
	ID            int            `json:"id"`
	BuildNumber   string         `json:"buildNumber,omitempty"`
	Status        string         `json:"status,omitempty"`
	Result        string         `json:"result,omitempty"`
	QueueTime     string         `json:"queueTime,omitempty"`
	URL           string         `json:"url,omitempty"`
	SourceBranch  string         `json:"sourceBranch,omitempty"`
	SourceVersion string         `json:"sourceVersion,omitempty"`
	Definition    DefinitionInfo `json:"definition"`
}

// Operations возвращает операции шлюза в порядке каталога.
func Operations() []dispatch.Handler {
	return []dispatch.Handler{
		dispatch.Operation{
			Name:        OpList,
			Description: "List all pipelines in the project",
			Schema: dispatch.Object(map[string]dispatch.Schema{
				"folder": dispatch.String("Filter pipelines by folder path (optional)"),
				"name":   dispatch.String("Filter pipelines by name (optional)"),
			}),
			MissingArgs: "Pipeline arguments required",
			Run:         list,
		},
		dispatch.Operation{
			Name:        OpTrigger,
			Description: "Trigger a pipeline run",
			Schema: dispatch.Object(map[string]dispatch.Schema{
				"pipelineId": dispatch.Number("Pipeline ID to trigger"),
				"branch":     dispatch.String("Branch to run the pipeline on (optional, defaults to default branch)"),
				"variables":  dispatch.StringMap("Pipeline variables to override (optional)"),
			}, "pipelineId"),
			MissingArgs: "Pipeline trigger arguments required",
			Run:         trigger,
		},
	}
}

// Filter отбирает определения по префиксу папки и подстроке имени.
// Имя сравнивается без учёта регистра (Unicode case folding).
func Filter(defs []azuredevops.BuildDefinitionReference, folder, name string) []azuredevops.BuildDefinitionReference {
	fold := cases.Fold()
	needle := fold.String(name)

	out := make([]azuredevops.BuildDefinitionReference, 0, len(defs))
	for _, d := range defs {
		if folder != "" && !strings.HasPrefix(d.Path, folder) {
			continue
		}
		if name != "" && !strings.Contains(fold.String(d.Name), needle) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func list(ctx context.Context, env gateway.Env, args gateway.Args) (any, error) {
	folder, err := args.OptionalString("folder")
	if err != nil {
		return nil, err
	}
	name, err := args.OptionalString("name")
	if err != nil {
		return nil, err
	}

	api, err := env.Backend.Build(ctx)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{})
	}
	defs, err := api.ListDefinitions(ctx, env.Project())
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{})
	}

	filtered := Filter(defs, folder, name)
	out := make([]Info, 0, len(filtered))
	for _, d := range filtered {
		info := Info{
			ID:          d.ID,
			Name:        d.Name,
			Path:        d.Path,
			Status:      d.QueueStatus,
			Revision:    d.Revision,
			Type:        d.Type,
			CreatedDate: d.CreatedDate,
		}
		if d.Project != nil {
			info.Project = ProjectInfo{ID: d.Project.ID, Name: d.Project.Name}
		}
		out = append(out, info)
	}
	return out, nil
}

func trigger(ctx context.Context, env gateway.Env, args gateway.Args) (any, error) {
	pipelineID, err := args.RequiredInt("pipelineId")
	if err != nil {
		return nil, err
	}
	branch, err := args.OptionalString("branch")
	if err != nil {
		return nil, err
	}
	variables, hasVariables, err := args.StringMap("variables")
	if err != nil {
		return nil, err
	}

	api, err := env.Backend.Build(ctx)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{})
	}
	resource := fmt.Sprintf("Pipeline with ID %d", pipelineID)
	def, err := api.GetDefinition(ctx, env.Project(), pipelineID)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{Resource: resource})
	}
	if def == nil {
		return nil, apperrors.NewNotFoundError(resource+" not found", nil)
	}

	req := azuredevops.QueueBuildRequest{
		Definition:   azuredevops.DefinitionRef{ID: def.ID},
		Project:      def.Project,
		SourceBranch: SourceBranch(branch, def),
	}
	if hasVariables {
		params, err := json.Marshal(variables)
		if err != nil {
			return nil, apperrors.NewValidationError("variables", fmt.Sprintf("variables are not serializable: %v", err))
		}
		req.Parameters = string(params)
	}

	run, err := api.QueueBuild(ctx, env.Project(), req)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{Resource: resource})
	}
	env.Log().Info("pipeline queued", "pipeline_id", pipelineID, "build_id", run.ID, "branch", req.SourceBranch)
	return toRun(run), nil
}

// SourceBranch выбирает ветку запуска: аргумент, ветка по умолчанию
// репозитория определения, затем constants.DefaultBranch.
func SourceBranch(branch string, def *azuredevops.BuildDefinition) string {
	if branch != "" {
		return branch
	}
	if def != nil && def.Repository != nil && def.Repository.DefaultBranch != "" {
		return def.Repository.DefaultBranch
	}
	return constants.DefaultBranch
}

func toRun(b *azuredevops.BuildRun) Run {
	r := Run{
		ID:            b.ID,
		BuildNumber:   b.BuildNumber,
		Status:        b.Status,
		Result:        b.Result,
		QueueTime:     b.QueueTime,
		SourceBranch:  b.SourceBranch,
		SourceVersion: b.SourceVersion,
	}
	if b.Links != nil && b.Links.Web != nil {
		r.URL = b.Links.Web.Href
	}
	if b.Definition != nil {
		r.Definition = DefinitionInfo{ID: b.Definition.ID, Name: b.Definition.Name}
	}
	return r
}
