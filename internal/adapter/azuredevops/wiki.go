package azuredevops

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// WikiClient реализует Wiki.
type WikiClient struct {
	c *Client
}

// ListWikis возвращает вики проекта.
func (w *WikiClient) ListWikis(ctx context.Context, project string) ([]WikiV2, error) {
	return getList[WikiV2](ctx, w.c, []string{project, "_apis", "wiki", "wikis"}, nil)
}

// GetWiki возвращает вики по id или имени.
func (w *WikiClient) GetWiki(ctx context.Context, project, wikiIdentifier string) (*WikiV2, error) {
	var out WikiV2
	_, err := w.c.do(ctx, request{
		method:   http.MethodGet,
		segments: []string{project, "_apis", "wiki", "wikis", wikiIdentifier},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateWiki создаёт вики.
func (w *WikiClient) CreateWiki(ctx context.Context, project string, params WikiCreateParameters) (*WikiV2, error) {
	var out WikiV2
	_, err := w.c.do(ctx, request{
		method:   http.MethodPost,
		segments: []string{project, "_apis", "wiki", "wikis"},
		body:     params,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPage возвращает страницу вики. Заголовок ETag ответа сохраняется в
// WikiPage.ETag, без него страницу нельзя заменить.
func (w *WikiClient) GetPage(ctx context.Context, project, wikiIdentifier string, opts PageOptions) (*WikiPage, error) {
	q := url.Values{}
	q.Set("path", opts.Path)
	if opts.IncludeContent {
		q.Set("includeContent", "true")
	}
	if opts.Version != "" {
		q.Set("versionDescriptor.version", opts.Version)
		q.Set("versionDescriptor.versionType", "branch")
	}

	var out WikiPage
	resp, err := w.c.do(ctx, request{
		method:   http.MethodGet,
		segments: []string{project, "_apis", "wiki", "wikis", wikiIdentifier, "pages"},
		query:    q,
	}, &out)
	if err != nil {
		return nil, err
	}
	out.ETag = etag(resp.header)
	return &out, nil
}

// PutPage создаёт страницу, а при заданном put.ETag заменяет существующую.
func (w *WikiClient) PutPage(ctx context.Context, project, wikiIdentifier string, put PagePut) (*WikiPage, error) {
	q := url.Values{}
	q.Set("path", put.Path)
	if put.Comment != "" {
		q.Set("comment", put.Comment)
	}

	header := http.Header{}
	if put.ETag != "" {
		header.Set("If-Match", put.ETag)
	}

	var out WikiPage
	resp, err := w.c.do(ctx, request{
		method:   http.MethodPut,
		segments: []string{project, "_apis", "wiki", "wikis", wikiIdentifier, "pages"},
		query:    q,
		body:     map[string]string{"content": put.Content},
		header:   header,
	}, &out)
	if err != nil {
		return nil, err
	}
	out.ETag = etag(resp.header)
	return &out, nil
}

func etag(h http.Header) string {
	return strings.TrimSpace(h.Get("ETag"))
}
