package azuredevops

import "context"

// WorkClient реализует Work.
type WorkClient struct {
	c *Client
}

// ListBoards возвращает доски команды.
func (w *WorkClient) ListBoards(ctx context.Context, project, team string) ([]BoardReference, error) {
	return getList[BoardReference](ctx, w.c, []string{project, team, "_apis", "work", "boards"}, nil)
}
