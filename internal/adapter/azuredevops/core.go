package azuredevops

import "context"

// CoreClient реализует Core.
type CoreClient struct {
	c *Client
}

// ListProjects возвращает проекты организации.
func (p *CoreClient) ListProjects(ctx context.Context) ([]TeamProjectReference, error) {
	return getList[TeamProjectReference](ctx, p.c, []string{"_apis", "projects"}, nil)
}
