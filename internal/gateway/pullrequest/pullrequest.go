// Package pullrequest - шлюз операций над pull request'ами.
//
// Pull request'ы передаются как исходный JSON бэкенда: вызывающий получает
// все поля, а шлюз читает только нужные ему через gjson.
package pullrequest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/adapter/azuredevops"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/dispatch"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/gateway"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/apperrors"
)

// Имена операций.
const (
	OpList   = "list_pull_requests"
	OpGet    = "get_pull_request"
	OpCreate = "create_pull_request"
	OpUpdate = "update_pull_request"
)

var statusLabels = []string{"active", "completed", "abandoned"}

// mergeStrategies - порядковые значения стратегий слияния.
var mergeStrategies = map[string]azuredevops.MergeStrategy{
	"squash": azuredevops.MergeStrategySquash,
	"rebase": azuredevops.MergeStrategyRebase,
	"merge":  azuredevops.MergeStrategyNoFastForward,
}

// Operations возвращает операции шлюза в порядке каталога.
func Operations() []dispatch.Handler {
	return []dispatch.Handler{
		dispatch.Operation{
			Name:        OpList,
			Description: "List all pull requests in the project",
			Schema: dispatch.Object(map[string]dispatch.Schema{
				"status":       dispatch.StringEnum("Filter by PR status (active, completed, abandoned)", statusLabels...),
				"creatorId":    dispatch.String("Filter by creator ID (optional)"),
				"repositoryId": dispatch.String("Filter by repository ID (optional)"),
			}),
			MissingArgs: "Pull request list arguments required",
			Run:         list,
		},
		dispatch.Operation{
			Name:        OpGet,
			Description: "Get a specific pull request by ID",
			Schema: dispatch.Object(map[string]dispatch.Schema{
				"pullRequestId":    dispatch.Number("Pull Request ID"),
				"includeWorkItems": dispatch.Boolean("Include linked work items (optional)").With("default", false),
			}, "pullRequestId"),
			MissingArgs: "Pull request ID required",
			Run:         get,
		},
		dispatch.Operation{
			Name:        OpCreate,
			Description: "Create a new pull request",
			Schema: dispatch.Object(map[string]dispatch.Schema{
				"repositoryId":  dispatch.String("Repository ID"),
				"sourceRefName": dispatch.String("Source branch name (e.g. refs/heads/feature)"),
				"targetRefName": dispatch.String("Target branch name (e.g. refs/heads/main)"),
				"title":         dispatch.String("Pull request title"),
				"description":   dispatch.String("Pull request description"),
				"reviewers":     dispatch.Array("List of reviewer IDs (optional)", dispatch.Schema{"type": "string"}),
			}, "repositoryId", "sourceRefName", "targetRefName", "title"),
			MissingArgs: "Pull request creation arguments required",
			Run:         create,
		},
		dispatch.Operation{
			Name:        OpUpdate,
			Description: "Update an existing pull request",
			Schema: dispatch.Object(map[string]dispatch.Schema{
				"pullRequestId": dispatch.Number("Pull Request ID"),
				"status":        dispatch.StringEnum("New status (active, abandoned, completed)", "active", "abandoned", "completed"),
				"title":         dispatch.String("New title (optional)"),
				"description":   dispatch.String("New description (optional)"),
				"mergeStrategy": dispatch.StringEnum("Merge strategy (optional)", "squash", "rebase", "merge"),
			}, "pullRequestId"),
			MissingArgs: "Pull request update arguments required",
			Run:         update,
		},
	}
}

func resource(id int) string {
	return fmt.Sprintf("Pull request %d", id)
}

func list(ctx context.Context, env gateway.Env, args gateway.Args) (any, error) {
	repositoryID, _, err := args.String("repositoryId")
	if err != nil {
		return nil, err
	}
	if repositoryID == "" {
		return nil, apperrors.NewValidationError("repositoryId", "Repository ID is required")
	}
	status, _, err := args.Enum("status", statusLabels...)
	if err != nil {
		return nil, err
	}
	creatorID, err := args.OptionalString("creatorId")
	if err != nil {
		return nil, err
	}

	api, err := env.Backend.Git(ctx)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{})
	}
	prs, err := api.ListPullRequests(ctx, env.Project(), repositoryID, azuredevops.PullRequestSearchCriteria{
		Status:    azuredevops.ParsePullRequestStatus(status),
		CreatorID: creatorID,
	})
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{Resource: "Repository " + repositoryID})
	}
	return prs, nil
}

func get(ctx context.Context, env gateway.Env, args gateway.Args) (any, error) {
	id, err := args.RequiredInt("pullRequestId")
	if err != nil {
		return nil, err
	}
	includeWorkItems, err := args.Bool("includeWorkItems", false)
	if err != nil {
		return nil, err
	}

	api, err := env.Backend.Git(ctx)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{})
	}
	pr, err := api.GetPullRequest(ctx, env.Project(), id)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{Resource: resource(id)})
	}

	repositoryID := gjson.GetBytes(pr, "repository.id").String()
	if !includeWorkItems || repositoryID == "" {
		return pr, nil
	}

	refs, err := api.GetPullRequestWorkItemRefs(ctx, env.Project(), repositoryID, id)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{Resource: resource(id)})
	}
	return WithField(pr, "workItemRefs", refs)
}

// WithField добавляет поле верхнего уровня к JSON-объекту, сохраняя остальные поля.
func WithField(obj json.RawMessage, name string, value any) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(obj, &fields); err != nil {
		return nil, apperrors.NewAPIError(0, fmt.Sprintf("unexpected pull request payload: %v", err), string(obj), err)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, apperrors.NewAPIError(0, fmt.Sprintf("encode %s: %v", name, err), "", err)
	}
	fields[name] = data
	out, err := json.Marshal(fields)
	if err != nil {
		return nil, apperrors.NewAPIError(0, err.Error(), "", err)
	}
	return out, nil
}

func create(ctx context.Context, env gateway.Env, args gateway.Args) (any, error) {
	repositoryID, err := args.RequiredString("repositoryId")
	if err != nil {
		return nil, err
	}
	req := azuredevops.PullRequestCreate{}
	if req.SourceRefName, err = args.RequiredString("sourceRefName"); err != nil {
		return nil, err
	}
	if req.TargetRefName, err = args.RequiredString("targetRefName"); err != nil {
		return nil, err
	}
	if req.Title, err = args.RequiredString("title"); err != nil {
		return nil, err
	}
	if req.Description, err = args.OptionalString("description"); err != nil {
		return nil, err
	}
	reviewers, _, err := args.StringSlice("reviewers")
	if err != nil {
		return nil, err
	}
	for _, id := range reviewers {
		req.Reviewers = append(req.Reviewers, azuredevops.IdentityRef{ID: id})
	}

	api, err := env.Backend.Git(ctx)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{})
	}
	pr, err := api.CreatePullRequest(ctx, env.Project(), repositoryID, req)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{Resource: "Repository " + repositoryID})
	}
	env.Log().Info("pull request created",
		"repository_id", repositoryID,
		"pull_request_id", gjson.GetBytes(pr, "pullRequestId").Int(),
	)
	return pr, nil
}

func update(ctx context.Context, env gateway.Env, args gateway.Args) (any, error) {
	id, err := args.RequiredInt("pullRequestId")
	if err != nil {
		return nil, err
	}
	status, hasStatus, err := args.Enum("status", "active", "abandoned", "completed")
	if err != nil {
		return nil, err
	}
	title, err := args.OptionalString("title")
	if err != nil {
		return nil, err
	}
	description, err := args.OptionalString("description")
	if err != nil {
		return nil, err
	}
	strategy, hasStrategy, err := args.Enum("mergeStrategy", "squash", "rebase", "merge")
	if err != nil {
		return nil, err
	}

	api, err := env.Backend.Git(ctx)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{})
	}
	current, err := api.GetPullRequest(ctx, env.Project(), id)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{Resource: resource(id)})
	}
	repositoryID := gjson.GetBytes(current, "repository.id").String()
	if repositoryID == "" {
		return nil, apperrors.NewAPIError(0, "Repository ID not found in pull request", string(current), nil)
	}

	body := Merge(current, UpdateArgs{
		Status:        status,
		HasStatus:     hasStatus,
		Title:         title,
		Description:   description,
		MergeStrategy: strategy,
		HasStrategy:   hasStrategy,
	})
	if _, err := api.UpdatePullRequest(ctx, env.Project(), repositoryID, id, body); err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{Resource: resource(id)})
	}
	env.Log().Info("pull request updated",
		"pull_request_id", id,
		"status", body.Status.String(),
		"completion", body.CompletionOptions != nil,
	)

	updated, err := api.GetPullRequest(ctx, env.Project(), id)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{Resource: resource(id)})
	}
	return updated, nil
}

// UpdateArgs - суженные аргументы update_pull_request.
type UpdateArgs struct {
	Status        string
	HasStatus     bool
	Title         string
	Description   string
	MergeStrategy string
	HasStrategy   bool
}

// Merge строит тело обновления из текущего состояния PR и аргументов.
// Непереданные status, title и description берутся из текущего PR.
// Стратегия слияния применяется только при переводе в completed, вместе с
// удалением исходной ветки.
func Merge(current json.RawMessage, a UpdateArgs) azuredevops.PullRequestUpdate {
	body := azuredevops.PullRequestUpdate{
		Status:      azuredevops.ParsePullRequestStatus(gjson.GetBytes(current, "status").String()),
		Title:       gjson.GetBytes(current, "title").String(),
		Description: gjson.GetBytes(current, "description").String(),
	}
	if a.HasStatus {
		body.Status = azuredevops.ParsePullRequestStatus(a.Status)
	}
	if a.Title != "" {
		body.Title = a.Title
	}
	if a.Description != "" {
		body.Description = a.Description
	}

	if body.Status == azuredevops.PullRequestStatusCompleted {
		if commit := gjson.GetBytes(current, "lastMergeSourceCommit"); commit.Exists() {
			body.LastMergeSourceCommit = json.RawMessage(commit.Raw)
		}
	}
	if a.HasStrategy && a.HasStatus && a.Status == "completed" {
		body.CompletionOptions = &azuredevops.CompletionOptions{
			MergeStrategy:      mergeStrategies[a.MergeStrategy],
			DeleteSourceBranch: true,
		}
	}
	return body
}
