package azuredevops

import (
	"context"
	"net/http"
	"strconv"
)

// WorkItemClient реализует WorkItemTracking.
type WorkItemClient struct {
	c *Client
}

// GetWorkItemsBatch получает work items по id одним запросом.
func (w *WorkItemClient) GetWorkItemsBatch(ctx context.Context, project string, req WorkItemBatchRequest) ([]WorkItem, error) {
	var out listResponse[WorkItem]
	_, err := w.c.do(ctx, request{
		method:   http.MethodPost,
		segments: []string{project, "_apis", "wit", "workitemsbatch"},
		body:     req,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Value == nil {
		out.Value = []WorkItem{}
	}
	return out.Value, nil
}

// QueryByWiql выполняет WIQL запрос в проекте.
func (w *WorkItemClient) QueryByWiql(ctx context.Context, project, query string) (*WorkItemQueryResult, error) {
	var out WorkItemQueryResult
	_, err := w.c.do(ctx, request{
		method:   http.MethodPost,
		segments: []string{project, "_apis", "wit", "wiql"},
		body:     map[string]string{"query": query},
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.WorkItems == nil {
		out.WorkItems = []WorkItemReference{}
	}
	return &out, nil
}

// CreateWorkItem создаёт work item заданного типа из patch-документа.
func (w *WorkItemClient) CreateWorkItem(ctx context.Context, project, workItemType string, doc []PatchOperation) (*WorkItem, error) {
	var out WorkItem
	_, err := w.c.do(ctx, request{
		method:      http.MethodPost,
		segments:    []string{project, "_apis", "wit", "workitems", "$" + workItemType},
		body:        doc,
		contentType: contentTypeJSONPatch,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateWorkItem применяет patch-документ к существующему work item.
func (w *WorkItemClient) UpdateWorkItem(ctx context.Context, project string, id int, doc []PatchOperation) (*WorkItem, error) {
	var out WorkItem
	_, err := w.c.do(ctx, request{
		method:      http.MethodPatch,
		segments:    []string{project, "_apis", "wit", "workitems", strconv.Itoa(id)},
		body:        doc,
		contentType: contentTypeJSONPatch,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
