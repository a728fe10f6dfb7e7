package azuredevops

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
)

// String возвращает REST-имя статуса.
func (s PullRequestStatus) String() string {
	switch s {
	case PullRequestStatusActive:
		return "active"
	case PullRequestStatusAbandoned:
		return "abandoned"
	case PullRequestStatusCompleted:
		return "completed"
	default:
		return "all"
	}
}

// ParsePullRequestStatus переводит REST-имя статуса в его номер.
// Неизвестное имя даёт 0.
func ParsePullRequestStatus(label string) PullRequestStatus {
	switch label {
	case "active":
		return PullRequestStatusActive
	case "abandoned":
		return PullRequestStatusAbandoned
	case "completed":
		return PullRequestStatusCompleted
	default:
		return 0
	}
}

// GitClient реализует Git.
type GitClient struct {
	c *Client
}

// ListPullRequests возвращает pull requests репозитория.
func (g *GitClient) ListPullRequests(ctx context.Context, project, repositoryID string, criteria PullRequestSearchCriteria) ([]json.RawMessage, error) {
	q := url.Values{}
	if criteria.Status != 0 {
		q.Set("searchCriteria.status", criteria.Status.String())
	}
	if criteria.CreatorID != "" {
		q.Set("searchCriteria.creatorId", criteria.CreatorID)
	}
	return getList[json.RawMessage](ctx, g.c,
		[]string{project, "_apis", "git", "repositories", repositoryID, "pullrequests"}, q)
}

// GetPullRequest возвращает pull request проекта по id.
func (g *GitClient) GetPullRequest(ctx context.Context, project string, pullRequestID int) (json.RawMessage, error) {
	resp, err := g.c.send(ctx, request{
		method:   http.MethodGet,
		segments: []string{project, "_apis", "git", "pullrequests", strconv.Itoa(pullRequestID)},
	})
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

// GetPullRequestWorkItemRefs возвращает ссылки на work items, связанные с pull request.
func (g *GitClient) GetPullRequestWorkItemRefs(ctx context.Context, project, repositoryID string, pullRequestID int) ([]ResourceRef, error) {
	return getList[ResourceRef](ctx, g.c,
		[]string{project, "_apis", "git", "repositories", repositoryID, "pullRequests", strconv.Itoa(pullRequestID), "workitems"}, nil)
}

// CreatePullRequest создаёт pull request.
func (g *GitClient) CreatePullRequest(ctx context.Context, project, repositoryID string, pr PullRequestCreate) (json.RawMessage, error) {
	resp, err := g.c.send(ctx, request{
		method:   http.MethodPost,
		segments: []string{project, "_apis", "git", "repositories", repositoryID, "pullrequests"},
		body:     pr,
	})
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

// UpdatePullRequest обновляет pull request через PATCH.
func (g *GitClient) UpdatePullRequest(ctx context.Context, project, repositoryID string, pullRequestID int, update PullRequestUpdate) (json.RawMessage, error) {
	resp, err := g.c.send(ctx, request{
		method:   http.MethodPatch,
		segments: []string{project, "_apis", "git", "repositories", repositoryID, "pullrequests", strconv.Itoa(pullRequestID)},
		body:     update,
	})
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}
