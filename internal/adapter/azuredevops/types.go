package azuredevops

import "encoding/json"

// -------------------------------------------------------------------
// Work item tracking
// -------------------------------------------------------------------

// WorkItem - work item в ответе сервера.
type WorkItem struct {
	ID        int                        `json:"id"`
	Rev       int                        `json:"rev,omitempty"`
	Fields    map[string]any             `json:"fields,omitempty"`
	Relations []map[string]any           `json:"relations,omitempty"`
	Links     map[string]json.RawMessage `json:"_links,omitempty"`
	URL       string                     `json:"url,omitempty"`
}

// WorkItemBatchRequest - тело POST wit/workitemsbatch.
type WorkItemBatchRequest struct {
	IDs    []int    `json:"ids"`
	Fields []string `json:"fields,omitempty"`
	AsOf   string   `json:"asOf,omitempty"`
	// Expand: "none", "relations", "fields", "links" или "all".
	Expand string `json:"$expand,omitempty"`
	// ErrorPolicy: "fail" или "omit".
	ErrorPolicy string `json:"errorPolicy,omitempty"`
}

// PatchOperation - одна операция JSON Patch над work item.
type PatchOperation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	From  string `json:"from,omitempty"`
	Value any    `json:"value,omitempty"`
}

// WorkItemReference - id work item из результата WIQL.
type WorkItemReference struct {
	ID  int    `json:"id"`
	URL string `json:"url,omitempty"`
}

// WorkItemFieldReference описывает колонку результата WIQL.
type WorkItemFieldReference struct {
	ReferenceName string `json:"referenceName"`
	Name          string `json:"name"`
	URL           string `json:"url,omitempty"`
}

// WorkItemQueryResult - результат WIQL запроса.
type WorkItemQueryResult struct {
	QueryType       string                   `json:"queryType,omitempty"`
	QueryResultType string                   `json:"queryResultType,omitempty"`
	AsOf            string                   `json:"asOf,omitempty"`
	Columns         []WorkItemFieldReference `json:"columns,omitempty"`
	WorkItems       []WorkItemReference      `json:"workItems"`
	// WorkItemRelations заполняется для запросов по связям.
	WorkItemRelations []json.RawMessage `json:"workItemRelations,omitempty"`
}

// -------------------------------------------------------------------
// Work
// -------------------------------------------------------------------

// BoardReference - доска команды.
type BoardReference struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// -------------------------------------------------------------------
// Wiki
// -------------------------------------------------------------------

// WikiV2 описывает вики.
type WikiV2 struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Type         string           `json:"type,omitempty"`
	ProjectID    string           `json:"projectId,omitempty"`
	RepositoryID string           `json:"repositoryId,omitempty"`
	MappedPath   string           `json:"mappedPath,omitempty"`
	URL          string           `json:"url,omitempty"`
	RemoteURL    string           `json:"remoteUrl,omitempty"`
	Versions     []VersionPointer `json:"versions,omitempty"`
}

// VersionPointer - git-версия вики.
type VersionPointer struct {
	Version string `json:"version"`
}

// WikiCreateParameters - тело POST wiki/wikis.
type WikiCreateParameters struct {
	Name       string `json:"name"`
	ProjectID  string `json:"projectId"`
	Type       string `json:"type"`
	MappedPath string `json:"mappedPath"`
}

// WikiPage - страница вики. ETag берётся из заголовка ответа.
type WikiPage struct {
	ID           int        `json:"id,omitempty"`
	Path         string     `json:"path"`
	Order        int        `json:"order,omitempty"`
	GitItemPath  string     `json:"gitItemPath,omitempty"`
	IsParentPage bool       `json:"isParentPage,omitempty"`
	Content      string     `json:"content,omitempty"`
	SubPages     []WikiPage `json:"subPages,omitempty"`
	URL          string     `json:"url,omitempty"`
	RemoteURL    string     `json:"remoteUrl,omitempty"`
	ETag         string     `json:"eTag,omitempty"`
}

// PageOptions выбирает страницу вики.
type PageOptions struct {
	Path           string
	Version        string
	IncludeContent bool
}

// PagePut создаёт или заменяет страницу вики.
type PagePut struct {
	Path    string
	Content string
	Comment string
	// ETag существующей страницы, пустой при создании новой.
	ETag string
}

// -------------------------------------------------------------------
// Core
// -------------------------------------------------------------------

// TeamProjectReference - проект организации.
type TeamProjectReference struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	URL            string `json:"url,omitempty"`
	State          string `json:"state,omitempty"`
	Visibility     string `json:"visibility,omitempty"`
	LastUpdateTime string `json:"lastUpdateTime,omitempty"`
	Revision       int64  `json:"revision,omitempty"`
}

// -------------------------------------------------------------------
// Build
// -------------------------------------------------------------------

// ProjectRef - краткая ссылка на проект внутри объектов сборки.
type ProjectRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// BuildDefinitionReference - элемент списка определений.
type BuildDefinitionReference struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Path        string      `json:"path,omitempty"`
	QueueStatus string      `json:"queueStatus,omitempty"`
	Revision    int         `json:"revision,omitempty"`
	Type        string      `json:"type,omitempty"`
	CreatedDate string      `json:"createdDate,omitempty"`
	Project     *ProjectRef `json:"project,omitempty"`
}

// BuildRepository - репозиторий исходников определения.
type BuildRepository struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name,omitempty"`
	Type          string `json:"type,omitempty"`
	DefaultBranch string `json:"defaultBranch,omitempty"`
}

// BuildDefinition - полное определение сборки.
type BuildDefinition struct {
	BuildDefinitionReference
	Repository *BuildRepository `json:"repository,omitempty"`
}

// DefinitionRef указывает определение в запросе на запуск.
type DefinitionRef struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

// QueueBuildRequest - тело POST build/builds.
type QueueBuildRequest struct {
	Definition   DefinitionRef `json:"definition"`
	Project      *ProjectRef   `json:"project,omitempty"`
	SourceBranch string        `json:"sourceBranch,omitempty"`
	// Parameters - JSON объект, сериализованный в строку.
	Parameters string `json:"parameters,omitempty"`
}

// Link - ссылка REST ресурса.
type Link struct {
	Href string `json:"href"`
}

// BuildLinks - ссылки сборки.
type BuildLinks struct {
	Web *Link `json:"web,omitempty"`
}

// BuildRun - поставленная в очередь сборка.
type BuildRun struct {
	ID            int            `json:"id"`
	BuildNumber   string         `json:"buildNumber,omitempty"`
	Status        string         `json:"status,omitempty"`
	Result        string         `json:"result,omitempty"`
	QueueTime     string         `json:"queueTime,omitempty"`
	SourceBranch  string         `json:"sourceBranch,omitempty"`
	SourceVersion string         `json:"sourceVersion,omitempty"`
	Definition    *DefinitionRef `json:"definition,omitempty"`
	Links         *BuildLinks    `json:"_links,omitempty"`
}

// -------------------------------------------------------------------
// Git
// -------------------------------------------------------------------

// PullRequestStatus - номер статуса pull request на стороне сервера.
type PullRequestStatus int

// Статусы pull request.
const (
	PullRequestStatusActive    PullRequestStatus = 1
	PullRequestStatusAbandoned PullRequestStatus = 2
	PullRequestStatusCompleted PullRequestStatus = 3
)

// MergeStrategy - номер стратегии слияния на стороне сервера.
type MergeStrategy int

// Стратегии слияния.
const (
	MergeStrategyNoFastForward MergeStrategy = 1
	MergeStrategyRebase        MergeStrategy = 2
	MergeStrategySquash        MergeStrategy = 3
)

// PullRequestSearchCriteria - фильтр ListPullRequests.
type PullRequestSearchCriteria struct {
	Status    PullRequestStatus // 0 - любой
	CreatorID string
}

// IdentityRef ссылается на пользователя или группу по id.
type IdentityRef struct {
	ID string `json:"id"`
}

// PullRequestCreate - тело POST pullrequests.
type PullRequestCreate struct {
	SourceRefName string        `json:"sourceRefName"`
	TargetRefName string        `json:"targetRefName"`
	Title         string        `json:"title"`
	Description   string        `json:"description,omitempty"`
	Reviewers     []IdentityRef `json:"reviewers,omitempty"`
}

// CompletionOptions задаёт способ завершения pull request.
type CompletionOptions struct {
	MergeStrategy      MergeStrategy `json:"mergeStrategy"`
	DeleteSourceBranch bool          `json:"deleteSourceBranch"`
}

// PullRequestUpdate - тело PATCH pullrequests/{id}.
type PullRequestUpdate struct {
	Status      PullRequestStatus `json:"status,omitempty"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	// LastMergeSourceCommit обязателен для завершения pull request.
	LastMergeSourceCommit json.RawMessage    `json:"lastMergeSourceCommit,omitempty"`
	CompletionOptions     *CompletionOptions `json:"completionOptions,omitempty"`
}

// ResourceRef - ссылка из ответа метода work items для pull request.
type ResourceRef struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}
