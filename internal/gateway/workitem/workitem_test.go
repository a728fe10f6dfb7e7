package workitem

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/adapter/azuredevops"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/dispatch"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/gateway"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/gateway/gatewaytest"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/apperrors"
)

func op(t *testing.T, name string) dispatch.Handler {
	t.Helper()
	for _, h := range Operations() {
		if h.Descriptor().Name == name {
			return h
		}
	}
	t.Fatalf("operation %s not found", name)
	return nil
}

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind())
	assert.Equal(t, field, appErr.Field)
}

func TestUpdate_SingleTitleProducesOneOperation(t *testing.T) {
	env, mock := gatewaytest.NewEnv(t)
	var got []azuredevops.PatchOperation
	mock.UpdateWorkItemFunc = func(_ context.Context, project string, id int, doc []azuredevops.PatchOperation) (*azuredevops.WorkItem, error) {
		assert.Equal(t, gatewaytest.Project, project)
		assert.Equal(t, 42, id)
		got = doc
		return &azuredevops.WorkItem{ID: id}, nil
	}

	_, err := op(t, OpUpdate).Execute(context.Background(), env, gateway.Args{"id": float64(42), "title": "X"})
	require.NoError(t, err)
	assert.Equal(t, []azuredevops.PatchOperation{{Op: "add", Path: "/fields/System.Title", Value: "X"}}, got)
}

func TestUpdate_NoFieldsFailsBeforeBackend(t *testing.T) {
	env, mock := gatewaytest.NewEnv(t)

	_, err := op(t, OpUpdate).Execute(context.Background(), env, gateway.Args{"id": float64(42)})
	requireValidation(t, err, "document")
	assert.Contains(t, err.Error(), "no fields provided for update")
	assert.Zero(t, mock.CallCount("UpdateWorkItem"))
}

func TestUpdate_MissingID(t *testing.T) {
	env, mock := gatewaytest.NewEnv(t)
	_, err := op(t, OpUpdate).Execute(context.Background(), env, gateway.Args{"title": "X"})
	requireValidation(t, err, "id")
	assert.Empty(t, mock.Calls())
}

func TestBuildPatch_Order(t *testing.T) {
	doc, err := BuildPatch(gateway.Args{
		"tags":        []any{"a", "b"},
		"state":       "Active",
		"assignedTo":  "user@example.com",
		"description": "D",
		"title":       "T",
	})
	require.NoError(t, err)

	paths := make([]string, 0, len(doc))
	for _, op := range doc {
		assert.Equal(t, "add", op.Op)
		paths = append(paths, op.Path)
	}
	assert.Equal(t, []string{
		"/fields/System.Title",
		"/fields/System.Description",
		"/fields/System.AssignedTo",
		"/fields/System.State",
		"/fields/System.Tags",
	}, paths)
	assert.Equal(t, "a; b", doc[4].Value)
}

func TestBuildPatch_SkipsEmpty(t *testing.T) {
	doc, err := BuildPatch(gateway.Args{"title": "", "state": "Closed"})
	require.NoError(t, err)
	require.Len(t, doc, 1)
	assert.Equal(t, "/fields/System.State", doc[0].Path)
}

func TestUpdate_ExplicitDocument(t *testing.T) {
	env, mock := gatewaytest.NewEnv(t)
	var got []azuredevops.PatchOperation
	mock.UpdateWorkItemFunc = func(_ context.Context, _ string, id int, doc []azuredevops.PatchOperation) (*azuredevops.WorkItem, error) {
		got = doc
		return &azuredevops.WorkItem{ID: id}, nil
	}

	_, err := op(t, OpUpdate).Execute(context.Background(), env, gateway.Args{
		"id": float64(7),
		"document": []any{
			map[string]any{"op": "replace", "path": "/fields/System.State", "value": "Done"},
			map[string]any{"op": "remove", "path": "/fields/System.Tags"},
		},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "replace", got[0].Op)
	assert.Nil(t, got[1].Value)
}

func TestUpdate_InvalidDocumentOp(t *testing.T) {
	env, _ := gatewaytest.NewEnv(t)
	_, err := op(t, OpUpdate).Execute(context.Background(), env, gateway.Args{
		"id":       float64(7),
		"document": []any{map[string]any{"op": "upsert", "path": "/fields/System.State"}},
	})
	requireValidation(t, err, "document")
}

func TestCreate_FromTitle(t *testing.T) {
	env, mock := gatewaytest.NewEnv(t)
	var gotType string
	var gotDoc []azuredevops.PatchOperation
	mock.CreateWorkItemFunc = func(_ context.Context, _ string, workItemType string, doc []azuredevops.PatchOperation) (*azuredevops.WorkItem, error) {
		gotType, gotDoc = workItemType, doc
		return &azuredevops.WorkItem{ID: 100}, nil
	}

	res, err := op(t, OpCreate).Execute(context.Background(), env, gateway.Args{"type": "Bug", "title": "Crash", "tags": []any{"p1"}})
	require.NoError(t, err)
	assert.Equal(t, 100, res.(*azuredevops.WorkItem).ID)
	assert.Equal(t, "Bug", gotType)
	require.Len(t, gotDoc, 2)
	assert.Equal(t, "p1", gotDoc[1].Value)
}

func TestCreate_RequiresTitleWithoutDocument(t *testing.T) {
	env, mock := gatewaytest.NewEnv(t)

	_, err := op(t, OpCreate).Execute(context.Background(), env, gateway.Args{"type": "Bug"})
	requireValidation(t, err, "title")

	_, err = op(t, OpCreate).Execute(context.Background(), env, gateway.Args{"title": "x"})
	requireValidation(t, err, "type")
	assert.Zero(t, mock.CallCount("CreateWorkItem"))
}

func TestGet_ShapesBatchRequest(t *testing.T) {
	env, mock := gatewaytest.NewEnv(t)
	var got azuredevops.WorkItemBatchRequest
	mock.GetWorkItemsBatchFunc = func(_ context.Context, _ string, req azuredevops.WorkItemBatchRequest) ([]azuredevops.WorkItem, error) {
		got = req
		return []azuredevops.WorkItem{}, nil
	}

	_, err := op(t, OpGet).Execute(context.Background(), env, gateway.Args{
		"ids":         []any{float64(1), float64(2)},
		"$expand":     float64(1),
		"errorPolicy": float64(2),
		"asOf":        "2024-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got.IDs)
	assert.Equal(t, "relations", got.Expand)
	assert.Equal(t, "omit", got.ErrorPolicy)
	assert.Equal(t, "2024-01-01T00:00:00Z", got.AsOf)
}

func TestGet_FieldsWithExpandRejected(t *testing.T) {
	env, mock := gatewaytest.NewEnv(t)

	_, err := op(t, OpGet).Execute(context.Background(), env, gateway.Args{
		"ids":     []any{float64(1)},
		"fields":  []any{"System.Title"},
		"$expand": float64(4),
	})
	requireValidation(t, err, "fields")
	assert.Zero(t, mock.CallCount("GetWorkItemsBatch"))

	// $expand=0 (None) совместим с fields.
	_, err = op(t, OpGet).Execute(context.Background(), env, gateway.Args{
		"ids":     []any{float64(1)},
		"fields":  []any{"System.Title"},
		"$expand": float64(0),
	})
	require.NoError(t, err)
}

func TestGet_EmptyIDs(t *testing.T) {
	env, _ := gatewaytest.NewEnv(t)
	_, err := op(t, OpGet).Execute(context.Background(), env, gateway.Args{"ids": []any{}})
	requireValidation(t, err, "ids")
}

func TestUpdate_BackendNotFound(t *testing.T) {
	env, mock := gatewaytest.NewEnv(t)
	mock.UpdateWorkItemFunc = func(context.Context, string, int, []azuredevops.PatchOperation) (*azuredevops.WorkItem, error) {
		return nil, &azuredevops.ResponseError{StatusCode: http.StatusNotFound, Status: "404 Not Found"}
	}

	_, err := op(t, OpUpdate).Execute(context.Background(), env, gateway.Args{"id": float64(42), "title": "X"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	assert.Contains(t, err.Error(), "Work item 42 not found")
}

func TestList_PassesQuery(t *testing.T) {
	env, mock := gatewaytest.NewEnv(t)
	mock.QueryByWiqlFunc = func(_ context.Context, project, query string) (*azuredevops.WorkItemQueryResult, error) {
		assert.Equal(t, gatewaytest.Project, project)
		return &azuredevops.WorkItemQueryResult{WorkItems: []azuredevops.WorkItemReference{{ID: 5}}}, nil
	}

	res, err := op(t, OpList).Execute(context.Background(), env, gateway.Args{"query": "SELECT [System.Id] FROM WorkItems"})
	require.NoError(t, err)
	assert.Len(t, res.(*azuredevops.WorkItemQueryResult).WorkItems, 1)

	_, err = op(t, OpList).Execute(context.Background(), env, gateway.Args{})
	requireValidation(t, err, "query")
}
