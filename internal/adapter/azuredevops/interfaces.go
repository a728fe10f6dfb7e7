package azuredevops

import (
	"context"
	"encoding/json"
	"fmt"
)

// Kind - вид sub-API подключения.
type Kind string

// Виды sub-API.
const (
	KindWorkItemTracking Kind = "workItemTracking"
	KindGit              Kind = "git"
	KindBuild            Kind = "build"
	KindCore             Kind = "core"
	KindWiki             Kind = "wiki"
	KindWork             Kind = "work"
)

// Kinds возвращает все виды sub-API.
func Kinds() []Kind {
	return []Kind{KindWorkItemTracking, KindGit, KindBuild, KindCore, KindWiki, KindWork}
}

// -------------------------------------------------------------------
// Интерфейсы sub-API
// -------------------------------------------------------------------

// WorkItemTracking - чтение, запросы и изменение work items.
type WorkItemTracking interface {
	GetWorkItemsBatch(ctx context.Context, project string, req WorkItemBatchRequest) ([]WorkItem, error)
	QueryByWiql(ctx context.Context, project, query string) (*WorkItemQueryResult, error)
	CreateWorkItem(ctx context.Context, project, workItemType string, doc []PatchOperation) (*WorkItem, error)
	UpdateWorkItem(ctx context.Context, project string, id int, doc []PatchOperation) (*WorkItem, error)
}

// Work - доски команд.
type Work interface {
	ListBoards(ctx context.Context, project, team string) ([]BoardReference, error)
}

// Wiki - вики и их страницы.
type Wiki interface {
	ListWikis(ctx context.Context, project string) ([]WikiV2, error)
	GetWiki(ctx context.Context, project, wikiIdentifier string) (*WikiV2, error)
	CreateWiki(ctx context.Context, project string, params WikiCreateParameters) (*WikiV2, error)
	GetPage(ctx context.Context, project, wikiIdentifier string, opts PageOptions) (*WikiPage, error)
	PutPage(ctx context.Context, project, wikiIdentifier string, put PagePut) (*WikiPage, error)
}

// Core - список проектов организации.
type Core interface {
	ListProjects(ctx context.Context) ([]TeamProjectReference, error)
}

// Build - определения сборок и запуск сборок.
type Build interface {
	ListDefinitions(ctx context.Context, project string) ([]BuildDefinitionReference, error)
	GetDefinition(ctx context.Context, project string, definitionID int) (*BuildDefinition, error)
	QueueBuild(ctx context.Context, project string, req QueueBuildRequest) (*BuildRun, error)
}

// Git - pull requests. PR возвращаются как исходный JSON: все поля ответа
// сервера доходят до вызывающего без изменений.
type Git interface {
	ListPullRequests(ctx context.Context, project, repositoryID string, criteria PullRequestSearchCriteria) ([]json.RawMessage, error)
	GetPullRequest(ctx context.Context, project string, pullRequestID int) (json.RawMessage, error)
	GetPullRequestWorkItemRefs(ctx context.Context, project, repositoryID string, pullRequestID int) ([]ResourceRef, error)
	CreatePullRequest(ctx context.Context, project, repositoryID string, pr PullRequestCreate) (json.RawMessage, error)
	UpdatePullRequest(ctx context.Context, project, repositoryID string, pullRequestID int, update PullRequestUpdate) (json.RawMessage, error)
}

// Compile-time проверки реализации интерфейсов.
var (
	_ WorkItemTracking = (*WorkItemClient)(nil)
	_ Work             = (*WorkClient)(nil)
	_ Wiki             = (*WikiClient)(nil)
	_ Core             = (*CoreClient)(nil)
	_ Build            = (*BuildClient)(nil)
	_ Git              = (*GitClient)(nil)
)

// WorkItemTracking возвращает sub-API work item tracking.
func (c *Client) WorkItemTracking() *WorkItemClient { return &WorkItemClient{c: c} }

// Work возвращает sub-API досок.
func (c *Client) Work() *WorkClient { return &WorkClient{c: c} }

// Wiki возвращает sub-API вики.
func (c *Client) Wiki() *WikiClient { return &WikiClient{c: c} }

// Core возвращает sub-API проектов.
func (c *Client) Core() *CoreClient { return &CoreClient{c: c} }

// Build возвращает sub-API сборок.
func (c *Client) Build() *BuildClient { return &BuildClient{c: c} }

// Git возвращает sub-API pull requests.
func (c *Client) Git() *GitClient { return &GitClient{c: c} }

// SubAPI создаёт новый sub-API вида kind поверх клиента.
func (c *Client) SubAPI(kind Kind) (any, error) {
	switch kind {
	case KindWorkItemTracking:
		return c.WorkItemTracking(), nil
	case KindWork:
		return c.Work(), nil
	case KindWiki:
		return c.Wiki(), nil
	case KindCore:
		return c.Core(), nil
	case KindBuild:
		return c.Build(), nil
	case KindGit:
		return c.Git(), nil
	default:
		return nil, fmt.Errorf("unknown sub-API kind %q", kind)
	}
}
