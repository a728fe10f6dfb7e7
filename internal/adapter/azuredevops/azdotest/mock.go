// Package azdotest предоставляет тестовые утилиты для пакета azuredevops:
// мок-реализацию всех sub-API и тестовые данные.
//
// MockClient использует паттерн функциональных полей:
//
//	mock := azdotest.NewMockClient()
//	mock.GetPullRequestFunc = func(ctx context.Context, project string, id int) (json.RawMessage, error) {
//	    return azdotest.PullRequestData(id, "active"), nil
//	}
package azdotest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/adapter/azuredevops"
)

// Compile-time проверки реализации интерфейсов
var (
	_ azuredevops.WorkItemTracking = (*MockClient)(nil)
	_ azuredevops.Work             = (*MockClient)(nil)
	_ azuredevops.Wiki             = (*MockClient)(nil)
	_ azuredevops.Core             = (*MockClient)(nil)
	_ azuredevops.Build            = (*MockClient)(nil)
	_ azuredevops.Git              = (*MockClient)(nil)
)

// Call - запись об одном вызове мока.
type Call struct {
	Method string
	Args   []any
}

// MockClient - мок-реализация всех sub-API Azure DevOps.
type MockClient struct {
	// WorkItemTracking
	GetWorkItemsBatchFunc func(ctx context.Context, project string, req azuredevops.WorkItemBatchRequest) ([]azuredevops.WorkItem, error)
	QueryByWiqlFunc       func(ctx context.Context, project, query string) (*azuredevops.WorkItemQueryResult, error)
	CreateWorkItemFunc    func(ctx context.Context, project, workItemType string, doc []azuredevops.PatchOperation) (*azuredevops.WorkItem, error)
	UpdateWorkItemFunc    func(ctx context.Context, project string, id int, doc []azuredevops.PatchOperation) (*azuredevops.WorkItem, error)

	// Work
	ListBoardsFunc func(ctx context.Context, project, team string) ([]azuredevops.BoardReference, error)

	// Wiki
	ListWikisFunc  func(ctx context.Context, project string) ([]azuredevops.WikiV2, error)
	GetWikiFunc    func(ctx context.Context, project, wikiIdentifier string) (*azuredevops.WikiV2, error)
	CreateWikiFunc func(ctx context.Context, project string, params azuredevops.WikiCreateParameters) (*azuredevops.WikiV2, error)
	GetPageFunc    func(ctx context.Context, project, wikiIdentifier string, opts azuredevops.PageOptions) (*azuredevops.WikiPage, error)
	PutPageFunc    func(ctx context.Context, project, wikiIdentifier string, put azuredevops.PagePut) (*azuredevops.WikiPage, error)

	// Core
	ListProjectsFunc func(ctx context.Context) ([]azuredevops.TeamProjectReference, error)

	// Build
	ListDefinitionsFunc func(ctx context.Context, project string) ([]azuredevops.BuildDefinitionReference, error)
	GetDefinitionFunc   func(ctx context.Context, project string, definitionID int) (*azuredevops.BuildDefinition, error)
	QueueBuildFunc      func(ctx context.Context, project string, req azuredevops.QueueBuildRequest) (*azuredevops.BuildRun, error)

	// Git
	ListPullRequestsFunc           func(ctx context.Context, project, repositoryID string, criteria azuredevops.PullRequestSearchCriteria) ([]json.RawMessage, error)
	GetPullRequestFunc             func(ctx context.Context, project string, pullRequestID int) (json.RawMessage, error)
	GetPullRequestWorkItemRefsFunc func(ctx context.Context, project, repositoryID string, pullRequestID int) ([]azuredevops.ResourceRef, error)
	CreatePullRequestFunc          func(ctx context.Context, project, repositoryID string, pr azuredevops.PullRequestCreate) (json.RawMessage, error)
	UpdatePullRequestFunc          func(ctx context.Context, project, repositoryID string, pullRequestID int, update azuredevops.PullRequestUpdate) (json.RawMessage, error)

	mu    sync.Mutex
	calls []Call
}

// NewMockClient создаёт пустой mock с дефолтными ответами.
func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) record(method string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: method, Args: args})
}

// Calls возвращает копию журнала вызовов.
func (m *MockClient) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount возвращает число вызовов метода.
func (m *MockClient) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// -------------------------------------------------------------------
// Реализация WorkItemTracking
// -------------------------------------------------------------------

// GetWorkItemsBatch по умолчанию возвращает по элементу на каждый id.
func (m *MockClient) GetWorkItemsBatch(ctx context.Context, project string, req azuredevops.WorkItemBatchRequest) ([]azuredevops.WorkItem, error) {
	m.record("GetWorkItemsBatch", project, req)
	if m.GetWorkItemsBatchFunc != nil {
		return m.GetWorkItemsBatchFunc(ctx, project, req)
	}
	out := make([]azuredevops.WorkItem, 0, len(req.IDs))
	for _, id := range req.IDs {
		out = append(out, WorkItemData(id, "Task", fmt.Sprintf("Item %d", id)))
	}
	return out, nil
}

// QueryByWiql по умолчанию возвращает пустой результат.
func (m *MockClient) QueryByWiql(ctx context.Context, project, query string) (*azuredevops.WorkItemQueryResult, error) {
	m.record("QueryByWiql", project, query)
	if m.QueryByWiqlFunc != nil {
		return m.QueryByWiqlFunc(ctx, project, query)
	}
	return &azuredevops.WorkItemQueryResult{WorkItems: []azuredevops.WorkItemReference{}}, nil
}

// CreateWorkItem по умолчанию возвращает элемент с id 1.
func (m *MockClient) CreateWorkItem(ctx context.Context, project, workItemType string, doc []azuredevops.PatchOperation) (*azuredevops.WorkItem, error) {
	m.record("CreateWorkItem", project, workItemType, doc)
	if m.CreateWorkItemFunc != nil {
		return m.CreateWorkItemFunc(ctx, project, workItemType, doc)
	}
	item := WorkItemData(1, workItemType, "")
	return &item, nil
}

// UpdateWorkItem по умолчанию возвращает элемент с переданным id.
func (m *MockClient) UpdateWorkItem(ctx context.Context, project string, id int, doc []azuredevops.PatchOperation) (*azuredevops.WorkItem, error) {
	m.record("UpdateWorkItem", project, id, doc)
	if m.UpdateWorkItemFunc != nil {
		return m.UpdateWorkItemFunc(ctx, project, id, doc)
	}
	item := WorkItemData(id, "Task", "")
	return &item, nil
}

// -------------------------------------------------------------------
// Реализация Work
// -------------------------------------------------------------------

// ListBoards по умолчанию возвращает пустой срез.
func (m *MockClient) ListBoards(ctx context.Context, project, team string) ([]azuredevops.BoardReference, error) {
	m.record("ListBoards", project, team)
	if m.ListBoardsFunc != nil {
		return m.ListBoardsFunc(ctx, project, team)
	}
	return []azuredevops.BoardReference{}, nil
}

// -------------------------------------------------------------------
// Реализация Wiki
// -------------------------------------------------------------------

// ListWikis по умолчанию возвращает пустой срез.
func (m *MockClient) ListWikis(ctx context.Context, project string) ([]azuredevops.WikiV2, error) {
	m.record("ListWikis", project)
	if m.ListWikisFunc != nil {
		return m.ListWikisFunc(ctx, project)
	}
	return []azuredevops.WikiV2{}, nil
}

// GetWiki по умолчанию возвращает вики с запрошенным идентификатором.
func (m *MockClient) GetWiki(ctx context.Context, project, wikiIdentifier string) (*azuredevops.WikiV2, error) {
	m.record("GetWiki", project, wikiIdentifier)
	if m.GetWikiFunc != nil {
		return m.GetWikiFunc(ctx, project, wikiIdentifier)
	}
	return &azuredevops.WikiV2{ID: wikiIdentifier, Name: wikiIdentifier, Type: "projectWiki"}, nil
}

// CreateWiki по умолчанию возвращает вики с переданными параметрами.
func (m *MockClient) CreateWiki(ctx context.Context, project string, params azuredevops.WikiCreateParameters) (*azuredevops.WikiV2, error) {
	m.record("CreateWiki", project, params)
	if m.CreateWikiFunc != nil {
		return m.CreateWikiFunc(ctx, project, params)
	}
	return &azuredevops.WikiV2{
		ID:         "wiki-1",
		Name:       params.Name,
		Type:       params.Type,
		ProjectID:  params.ProjectID,
		MappedPath: params.MappedPath,
	}, nil
}

// GetPage по умолчанию возвращает страницу без содержимого.
func (m *MockClient) GetPage(ctx context.Context, project, wikiIdentifier string, opts azuredevops.PageOptions) (*azuredevops.WikiPage, error) {
	m.record("GetPage", project, wikiIdentifier, opts)
	if m.GetPageFunc != nil {
		return m.GetPageFunc(ctx, project, wikiIdentifier, opts)
	}
	return &azuredevops.WikiPage{Path: opts.Path, ETag: `"1"`}, nil
}

// PutPage по умолчанию возвращает страницу с переданным содержимым.
func (m *MockClient) PutPage(ctx context.Context, project, wikiIdentifier string, put azuredevops.PagePut) (*azuredevops.WikiPage, error) {
	m.record("PutPage", project, wikiIdentifier, put)
	if m.PutPageFunc != nil {
		return m.PutPageFunc(ctx, project, wikiIdentifier, put)
	}
	return &azuredevops.WikiPage{Path: put.Path, Content: put.Content}, nil
}

// -------------------------------------------------------------------
// Реализация Core
// -------------------------------------------------------------------

// ListProjects по умолчанию возвращает пустой срез.
func (m *MockClient) ListProjects(ctx context.Context) ([]azuredevops.TeamProjectReference, error) {
	m.record("ListProjects")
	if m.ListProjectsFunc != nil {
		return m.ListProjectsFunc(ctx)
	}
	return []azuredevops.TeamProjectReference{}, nil
}

// -------------------------------------------------------------------
// Реализация Build
// -------------------------------------------------------------------

// ListDefinitions по умолчанию возвращает пустой срез.
func (m *MockClient) ListDefinitions(ctx context.Context, project string) ([]azuredevops.BuildDefinitionReference, error) {
	m.record("ListDefinitions", project)
	if m.ListDefinitionsFunc != nil {
		return m.ListDefinitionsFunc(ctx, project)
	}
	return []azuredevops.BuildDefinitionReference{}, nil
}

// GetDefinition по умолчанию возвращает определение без репозитория.
func (m *MockClient) GetDefinition(ctx context.Context, project string, definitionID int) (*azuredevops.BuildDefinition, error) {
	m.record("GetDefinition", project, definitionID)
	if m.GetDefinitionFunc != nil {
		return m.GetDefinitionFunc(ctx, project, definitionID)
	}
	return &azuredevops.BuildDefinition{
		BuildDefinitionReference: azuredevops.BuildDefinitionReference{ID: definitionID, Name: fmt.Sprintf("pipeline-%d", definitionID)},
	}, nil
}

// QueueBuild по умолчанию возвращает сборку с id 1.
func (m *MockClient) QueueBuild(ctx context.Context, project string, req azuredevops.QueueBuildRequest) (*azuredevops.BuildRun, error) {
	m.record("QueueBuild", project, req)
	if m.QueueBuildFunc != nil {
		return m.QueueBuildFunc(ctx, project, req)
	}
	return &azuredevops.BuildRun{
		ID:           1,
		BuildNumber:  "20240101.1",
		Status:       "notStarted",
		SourceBranch: req.SourceBranch,
		Definition:   &azuredevops.DefinitionRef{ID: req.Definition.ID},
	}, nil
}

// -------------------------------------------------------------------
// Реализация Git
// -------------------------------------------------------------------

// ListPullRequests по умолчанию возвращает пустой срез.
func (m *MockClient) ListPullRequests(ctx context.Context, project, repositoryID string, criteria azuredevops.PullRequestSearchCriteria) ([]json.RawMessage, error) {
	m.record("ListPullRequests", project, repositoryID, criteria)
	if m.ListPullRequestsFunc != nil {
		return m.ListPullRequestsFunc(ctx, project, repositoryID, criteria)
	}
	return []json.RawMessage{}, nil
}

// GetPullRequest по умолчанию возвращает активный PR.
func (m *MockClient) GetPullRequest(ctx context.Context, project string, pullRequestID int) (json.RawMessage, error) {
	m.record("GetPullRequest", project, pullRequestID)
	if m.GetPullRequestFunc != nil {
		return m.GetPullRequestFunc(ctx, project, pullRequestID)
	}
	return PullRequestData(pullRequestID, "active"), nil
}

// GetPullRequestWorkItemRefs по умолчанию возвращает пустой срез.
func (m *MockClient) GetPullRequestWorkItemRefs(ctx context.Context, project, repositoryID string, pullRequestID int) ([]azuredevops.ResourceRef, error) {
	m.record("GetPullRequestWorkItemRefs", project, repositoryID, pullRequestID)
	if m.GetPullRequestWorkItemRefsFunc != nil {
		return m.GetPullRequestWorkItemRefsFunc(ctx, project, repositoryID, pullRequestID)
	}
	return []azuredevops.ResourceRef{}, nil
}

// CreatePullRequest по умолчанию возвращает PR с id 1.
func (m *MockClient) CreatePullRequest(ctx context.Context, project, repositoryID string, pr azuredevops.PullRequestCreate) (json.RawMessage, error) {
	m.record("CreatePullRequest", project, repositoryID, pr)
	if m.CreatePullRequestFunc != nil {
		return m.CreatePullRequestFunc(ctx, project, repositoryID, pr)
	}
	return PullRequestData(1, "active"), nil
}

// UpdatePullRequest по умолчанию возвращает PR с переданным id.
func (m *MockClient) UpdatePullRequest(ctx context.Context, project, repositoryID string, pullRequestID int, update azuredevops.PullRequestUpdate) (json.RawMessage, error) {
	m.record("UpdatePullRequest", project, repositoryID, pullRequestID, update)
	if m.UpdatePullRequestFunc != nil {
		return m.UpdatePullRequestFunc(ctx, project, repositoryID, pullRequestID, update)
	}
	return PullRequestData(pullRequestID, update.Status.String()), nil
}

// -------------------------------------------------------------------
// Тестовые данные
// -------------------------------------------------------------------

// WorkItemData возвращает тестовый элемент работы.
func WorkItemData(id int, workItemType, title string) azuredevops.WorkItem {
	return azuredevops.WorkItem{
		ID:  id,
		Rev: 1,
		Fields: map[string]any{
			"System.Id":           id,
			"System.WorkItemType": workItemType,
			"System.Title":        title,
			"System.State":        "New",
		},
	}
}

// PullRequestData возвращает тестовый PR в формате REST API.
func PullRequestData(id int, status string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
  "pullRequestId": %d,
  "status": %q,
  "title": "Test PR %d",
  "description": "Test description",
  "sourceRefName": "refs/heads/feature",
  "targetRefName": "refs/heads/main",
  "repository": {"id": "repo-1", "name": "repo"},
  "lastMergeSourceCommit": {"commitId": "abc123"}
}`, id, status, id))
}
