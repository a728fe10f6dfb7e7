// Package wiki - шлюз операций над wiki проекта и их страницами.
//
// Перед чтением и записью страницы wiki ищется по идентификатору: так
// отсутствие самой wiki отличается от отсутствия страницы.
package wiki

import (
	"context"
	"fmt"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/adapter/azuredevops"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/constants"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/dispatch"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/gateway"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/apperrors"
)

// Имена операций.
const (
	OpList       = "get_wikis"
	OpGetPage    = "get_wiki_page"
	OpCreate     = "create_wiki"
	OpUpdatePage = "update_wiki_page"
)

func pageProps(extra map[string]dispatch.Schema) map[string]dispatch.Schema {
	props := map[string]dispatch.Schema{
		"wikiIdentifier": dispatch.String("Wiki identifier"),
		"path":           dispatch.String("Page path"),
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

// Operations возвращает операции шлюза в порядке каталога.
func Operations() []dispatch.Handler {
	return []dispatch.Handler{
		dispatch.Operation{
			Name:        OpList,
			Description: "List all wikis in the project",
			Schema:      dispatch.Object(map[string]dispatch.Schema{}),
			Run:         list,
		},
		dispatch.Operation{
			Name:        OpGetPage,
			Description: "Get a wiki page by path",
			Schema: dispatch.Object(pageProps(map[string]dispatch.Schema{
				"version":        dispatch.String("Version (optional, defaults to main)"),
				"includeContent": dispatch.Boolean("Include page content (optional, defaults to true)"),
			}), "wikiIdentifier", "path"),
			Run: getPage,
		},
		dispatch.Operation{
			Name:        OpCreate,
			Description: "Create a new wiki",
			Schema: dispatch.Object(map[string]dispatch.Schema{
				"name":       dispatch.String("Wiki name"),
				"projectId":  dispatch.String("Project ID (optional, defaults to current project)"),
				"mappedPath": dispatch.String("Mapped path (optional, defaults to /)"),
			}, "name"),
			Run: create,
		},
		dispatch.Operation{
			Name:        OpUpdatePage,
			Description: "Create or update a wiki page",
			Schema: dispatch.Object(pageProps(map[string]dispatch.Schema{
				"content": dispatch.String("Page content in markdown format"),
				"comment": dispatch.String("Comment for the update (optional)"),
			}), "wikiIdentifier", "path", "content"),
			Run: updatePage,
		},
	}
}

func list(ctx context.Context, env gateway.Env, _ gateway.Args) (any, error) {
	api, err := env.Backend.Wiki(ctx)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{})
	}
	wikis, err := api.ListWikis(ctx, env.Project())
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{})
	}
	return wikis, nil
}

// pageArgs - аргументы, общие для операций со страницей.
type pageArgs struct {
	wikiID string
	path   string
}

func narrowPage(args gateway.Args) (pageArgs, error) {
	wikiID, err := args.RequiredString("wikiIdentifier")
	if err != nil {
		return pageArgs{}, err
	}
	path, err := args.RequiredString("path")
	if err != nil {
		return pageArgs{}, err
	}
	return pageArgs{wikiID: wikiID, path: path}, nil
}

// lookup находит wiki; любая 404 здесь означает отсутствие самой wiki.
func lookup(ctx context.Context, api azuredevops.Wiki, env gateway.Env, wikiID string) (*azuredevops.WikiV2, error) {
	w, err := api.GetWiki(ctx, env.Project(), wikiID)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{WikiID: wikiID, WikiLookup: true})
	}
	if w == nil || w.ID == "" {
		return nil, apperrors.NewWikiNotFoundError(wikiID, nil)
	}
	return w, nil
}

func getPage(ctx context.Context, env gateway.Env, args gateway.Args) (any, error) {
	pa, err := narrowPage(args)
	if err != nil {
		return nil, err
	}
	version, err := args.OptionalString("version")
	if err != nil {
		return nil, err
	}
	includeContent, err := args.Bool("includeContent", true)
	if err != nil {
		return nil, err
	}

	api, err := env.Backend.Wiki(ctx)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{})
	}
	w, err := lookup(ctx, api, env, pa.wikiID)
	if err != nil {
		return nil, err
	}
	page, err := api.GetPage(ctx, env.Project(), w.ID, azuredevops.PageOptions{
		Path:           pa.path,
		Version:        version,
		IncludeContent: includeContent,
	})
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{WikiID: pa.wikiID, Path: pa.path})
	}
	return page, nil
}

func create(ctx context.Context, env gateway.Env, args gateway.Args) (any, error) {
	name, err := args.RequiredString("name")
	if err != nil {
		return nil, err
	}
	projectID, err := args.OptionalString("projectId")
	if err != nil {
		return nil, err
	}
	mappedPath, err := args.OptionalString("mappedPath")
	if err != nil {
		return nil, err
	}
	if projectID == "" {
		projectID = env.Project()
	}
	if mappedPath == "" {
		mappedPath = constants.DefaultWikiMappedPath
	}

	api, err := env.Backend.Wiki(ctx)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{})
	}
	w, err := api.CreateWiki(ctx, env.Project(), azuredevops.WikiCreateParameters{
		Name:       name,
		ProjectID:  projectID,
		Type:       constants.WikiTypeProject,
		MappedPath: mappedPath,
	})
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{Resource: "Project " + projectID})
	}
	env.Log().Info("wiki created", "wiki_id", w.ID, "name", name)
	return w, nil
}

func updatePage(ctx context.Context, env gateway.Env, args gateway.Args) (any, error) {
	pa, err := narrowPage(args)
	if err != nil {
		return nil, err
	}
	content, err := args.RequiredString("content")
	if err != nil {
		return nil, err
	}
	comment, err := args.OptionalString("comment")
	if err != nil {
		return nil, err
	}
	if comment == "" {
		comment = fmt.Sprintf("Updated page %s", pa.path)
	}

	api, err := env.Backend.Wiki(ctx)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{})
	}
	w, err := lookup(ctx, api, env, pa.wikiID)
	if err != nil {
		return nil, err
	}

	// Замена существующей страницы требует её ETag в If-Match.
	etag := ""
	existing, err := api.GetPage(ctx, env.Project(), w.ID, azuredevops.PageOptions{Path: pa.path})
	switch {
	case err == nil:
		etag = existing.ETag
	case apperrors.IsKind(gateway.Normalize(err, gateway.ErrorContext{WikiID: pa.wikiID, Path: pa.path}), apperrors.KindWikiPageNotFound):
		// Новая страница.
	default:
		return nil, gateway.Fail(err, gateway.ErrorContext{WikiID: pa.wikiID, Path: pa.path})
	}

	page, err := api.PutPage(ctx, env.Project(), w.ID, azuredevops.PagePut{
		Path:    pa.path,
		Content: content,
		Comment: comment,
		ETag:    etag,
	})
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{WikiID: pa.wikiID, Path: pa.path})
	}
	env.Log().Info("wiki page saved", "wiki_id", w.ID, "path", pa.path, "replaced", etag != "")
	return page, nil
}
