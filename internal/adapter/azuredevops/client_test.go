package azuredevops_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/adapter/azuredevops"
)

// newTestClient поднимает httptest-сервер и клиент, привязанный к организации "org".
func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*azuredevops.Options)) *azuredevops.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts := azuredevops.Options{
		OrganizationURL: srv.URL + "/org",
		PAT:             "secret",
		APIVersion:      "7.0",
	}
	for _, m := range mutate {
		m(&opts)
	}
	return azuredevops.NewClient(opts)
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestClient_SendsStandardHeaders(t *testing.T) {
	var got *http.Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		writeJSON(t, w, http.StatusOK, map[string]any{"count": 0, "value": []any{}})
	})

	projects, err := client.Core().ListProjects(context.Background())
	require.NoError(t, err)
	assert.Empty(t, projects)
	require.NotNil(t, got)

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte(":secret"))
	assert.Equal(t, wantAuth, got.Header.Get("Authorization"))
	assert.Equal(t, "7.0", got.URL.Query().Get("api-version"))
	assert.Equal(t, client.SessionID(), got.Header.Get("X-TFS-Session"))
	assert.NotEmpty(t, got.Header.Get("User-Agent"))
	assert.Equal(t, "/org/_apis/projects", got.URL.Path)
}

func TestClient_SessionIDIsUniquePerClient(t *testing.T) {
	a := azuredevops.NewClient(azuredevops.Options{OrganizationURL: "https://dev.azure.com/o"})
	b := azuredevops.NewClient(azuredevops.Options{OrganizationURL: "https://dev.azure.com/o"})
	assert.NotEqual(t, a.SessionID(), b.SessionID())
	assert.Equal(t, "https://dev.azure.com/o", a.OrganizationURL())
}

func TestClient_NonAuthoritativeIsFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNonAuthoritativeInfo)
		_, _ = io.WriteString(w, "<html>sign in</html>")
	})

	_, err := client.Core().ListProjects(context.Background())
	require.Error(t, err)

	var respErr *azuredevops.ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, http.StatusNonAuthoritativeInfo, respErr.StatusCode)
}

func TestClient_ErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]any{
			"message": "The wiki was not found.",
			"typeKey": "WikiNotFoundException",
		})
	})

	_, err := client.Wiki().GetWiki(context.Background(), "P", "missing")
	require.Error(t, err)
	assert.True(t, azuredevops.IsNotFound(err))
	assert.Contains(t, err.Error(), "The wiki was not found.")
	assert.NotContains(t, err.Error(), "api-version")

	var respErr *azuredevops.ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, "WikiNotFoundException", respErr.TypeKey())
}

func TestClient_EscapesPathSegments(t *testing.T) {
	var path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.EscapedPath()
		writeJSON(t, w, http.StatusOK, map[string]any{"workItems": []any{}})
	})

	res, err := client.WorkItemTracking().QueryByWiql(context.Background(), "My Project", "SELECT [System.Id] FROM WorkItems")
	require.NoError(t, err)
	assert.NotNil(t, res.WorkItems)
	assert.Equal(t, "/org/My%20Project/_apis/wit/wiql", path)
}

func TestWorkItems_CreateUsesJSONPatch(t *testing.T) {
	var (
		contentType string
		path        string
		ops         []azuredevops.PatchOperation
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ops))
		writeJSON(t, w, http.StatusOK, map[string]any{"id": 42, "fields": map[string]any{"System.Title": "t"}})
	})

	item, err := client.WorkItemTracking().CreateWorkItem(context.Background(), "P", "Bug", []azuredevops.PatchOperation{
		{Op: "add", Path: "/fields/System.Title", Value: "t"},
	})
	require.NoError(t, err)
	assert.Equal(t, 42, item.ID)
	assert.Equal(t, "application/json-patch+json", contentType)
	assert.Equal(t, "/org/P/_apis/wit/workitems/$Bug", path)
	require.Len(t, ops, 1)
	assert.Equal(t, "/fields/System.Title", ops[0].Path)
}

func TestWorkItems_Batch(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(t, w, http.StatusOK, map[string]any{"count": 1, "value": []any{map[string]any{"id": 1}}})
	})

	items, err := client.WorkItemTracking().GetWorkItemsBatch(context.Background(), "P", azuredevops.WorkItemBatchRequest{
		IDs:    []int{1},
		Expand: "relations",
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "relations", body["$expand"])
	assert.NotContains(t, body, "fields")
}

func TestWiki_PageETagRoundTrip(t *testing.T) {
	var put *http.Request
	var putBody map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "/Home", r.URL.Query().Get("path"))
			assert.Equal(t, "true", r.URL.Query().Get("includeContent"))
			w.Header().Set("ETag", `"abc"`)
			writeJSON(t, w, http.StatusOK, map[string]any{"path": "/Home", "content": "old"})
		case http.MethodPut:
			put = r.Clone(context.Background())
			require.NoError(t, json.NewDecoder(r.Body).Decode(&putBody))
			w.Header().Set("ETag", `"def"`)
			writeJSON(t, w, http.StatusOK, map[string]any{"path": "/Home", "content": putBody["content"]})
		}
	})

	wiki := client.Wiki()
	page, err := wiki.GetPage(context.Background(), "P", "w1", azuredevops.PageOptions{Path: "/Home", IncludeContent: true})
	require.NoError(t, err)
	assert.Equal(t, `"abc"`, page.ETag)
	assert.Equal(t, "old", page.Content)

	updated, err := wiki.PutPage(context.Background(), "P", "w1", azuredevops.PagePut{
		Path:    "/Home",
		Content: "new",
		Comment: "edit",
		ETag:    page.ETag,
	})
	require.NoError(t, err)
	require.NotNil(t, put)
	assert.Equal(t, `"abc"`, put.Header.Get("If-Match"))
	assert.Equal(t, "edit", put.URL.Query().Get("comment"))
	assert.Equal(t, "new", putBody["content"])
	assert.Equal(t, `"def"`, updated.ETag)
}

func TestWiki_PutNewPageHasNoIfMatch(t *testing.T) {
	var ifMatch []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ifMatch = r.Header.Values("If-Match")
		writeJSON(t, w, http.StatusCreated, map[string]any{"path": "/New"})
	})

	_, err := client.Wiki().PutPage(context.Background(), "P", "w1", azuredevops.PagePut{Path: "/New", Content: "x"})
	require.NoError(t, err)
	assert.Empty(t, ifMatch)
}

func TestGit_ListPullRequestsCriteria(t *testing.T) {
	var query map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		assert.Equal(t, "/org/P/_apis/git/repositories/repo-1/pullrequests", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{"count": 1, "value": []any{map[string]any{"pullRequestId": 7, "extra": true}}})
	})

	prs, err := client.Git().ListPullRequests(context.Background(), "P", "repo-1", azuredevops.PullRequestSearchCriteria{
		Status:    azuredevops.PullRequestStatusCompleted,
		CreatorID: "user-1",
	})
	require.NoError(t, err)
	require.Len(t, prs, 1)
	assert.JSONEq(t, `{"pullRequestId": 7, "extra": true}`, string(prs[0]))
	assert.Equal(t, []string{"completed"}, query["searchCriteria.status"])
	assert.Equal(t, []string{"user-1"}, query["searchCriteria.creatorId"])
}

func TestGit_UpdateSendsOrdinals(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(t, w, http.StatusOK, map[string]any{"pullRequestId": 3})
	})

	_, err := client.Git().UpdatePullRequest(context.Background(), "P", "repo-1", 3, azuredevops.PullRequestUpdate{
		Status:                azuredevops.PullRequestStatusCompleted,
		Title:                 "t",
		LastMergeSourceCommit: json.RawMessage(`{"commitId":"abc"}`),
		CompletionOptions: &azuredevops.CompletionOptions{
			MergeStrategy:      azuredevops.MergeStrategySquash,
			DeleteSourceBranch: true,
		},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, body["status"])
	opts, ok := body["completionOptions"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 3, opts["mergeStrategy"])
	assert.Equal(t, true, opts["deleteSourceBranch"])
	assert.Equal(t, map[string]any{"commitId": "abc"}, body["lastMergeSourceCommit"])
}

func TestPullRequestStatusLabels(t *testing.T) {
	for _, s := range []azuredevops.PullRequestStatus{
		azuredevops.PullRequestStatusActive,
		azuredevops.PullRequestStatusAbandoned,
		azuredevops.PullRequestStatusCompleted,
	} {
		assert.Equal(t, s, azuredevops.ParsePullRequestStatus(s.String()))
	}
	assert.Equal(t, azuredevops.PullRequestStatus(0), azuredevops.ParsePullRequestStatus("notSet"))
}

func TestBuild_QueueBuild(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"id":          11,
			"buildNumber": "20240101.1",
			"_links":      map[string]any{"web": map[string]any{"href": "https://x/build/11"}},
		})
	})

	run, err := client.Build().QueueBuild(context.Background(), "P", azuredevops.QueueBuildRequest{
		Definition:   azuredevops.DefinitionRef{ID: 5},
		SourceBranch: "refs/heads/main",
		Parameters:   `{"a":"b"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, 11, run.ID)
	require.NotNil(t, run.Links)
	assert.Equal(t, "https://x/build/11", run.Links.Web.Href)
	assert.Equal(t, `{"a":"b"}`, body["parameters"])
	assert.Equal(t, map[string]any{"id": float64(5)}, body["definition"])
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"value": []any{}})
	}, func(o *azuredevops.Options) {
		o.RateLimit = 0.001
		o.RateBurst = 1
	})

	_, err := client.Core().ListProjects(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Core().ListProjects(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}

func TestClient_TransportError(t *testing.T) {
	client := azuredevops.NewClient(azuredevops.Options{
		OrganizationURL: "http://127.0.0.1:1/org",
		Timeout:         time.Second,
	})
	_, err := client.Core().ListProjects(context.Background())
	require.Error(t, err)
	var respErr *azuredevops.ResponseError
	assert.False(t, errors.As(err, &respErr))
}

func TestClient_SubAPI(t *testing.T) {
	client := azuredevops.NewClient(azuredevops.Options{OrganizationURL: "https://dev.azure.com/o"})
	for _, kind := range azuredevops.Kinds() {
		api, err := client.SubAPI(kind)
		require.NoError(t, err, kind)
		assert.NotNil(t, api)
	}
	_, err := client.SubAPI("policy")
	assert.Error(t, err)
}
