package project

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/adapter/azuredevops"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/gateway"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/gateway/gatewaytest"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/apperrors"
)

func TestListProjects_ProjectsSubset(t *testing.T) {
	env, mock := gatewaytest.NewEnv(t)
	mock.ListProjectsFunc = func(context.Context) ([]azuredevops.TeamProjectReference, error) {
		return []azuredevops.TeamProjectReference{{
			ID: "p1", Name: "Alpha", State: "wellFormed", Visibility: "private", Revision: 42,
			LastUpdateTime: "2024-05-01T10:00:00Z",
		}}, nil
	}

	res, err := Operations()[0].Execute(context.Background(), env, gateway.Args{})
	require.NoError(t, err)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"p1","name":"Alpha","state":"wellFormed","visibility":"private","lastUpdateTime":"2024-05-01T10:00:00Z"}]`, string(data))
}

func TestListProjects_Empty(t *testing.T) {
	env, _ := gatewaytest.NewEnv(t)

	res, err := Operations()[0].Execute(context.Background(), env, gateway.Args{})
	require.NoError(t, err)
	assert.Equal(t, []Summary{}, res)
}

func TestListProjects_Unauthorized(t *testing.T) {
	env, mock := gatewaytest.NewEnv(t)
	mock.ListProjectsFunc = func(context.Context) ([]azuredevops.TeamProjectReference, error) {
		return nil, &azuredevops.ResponseError{StatusCode: http.StatusUnauthorized, Status: "401 Unauthorized"}
	}

	_, err := Operations()[0].Execute(context.Background(), env, gateway.Args{})
	assert.True(t, apperrors.IsKind(err, apperrors.KindAuthentication))
}
