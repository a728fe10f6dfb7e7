// Package workitem - шлюз операций над элементами работы.
package workitem

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/adapter/azuredevops"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/constants"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/dispatch"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/gateway"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/apperrors"
)

// Имена операций.
const (
	OpGet    = "get_work_item"
	OpList   = "list_work_items"
	OpCreate = "create_work_item"
	OpUpdate = "update_work_item"
)

// Пути полей, из которых строится patch-документ.
const (
	fieldTitle       = "/fields/System.Title"
	fieldDescription = "/fields/System.Description"
	fieldAssignedTo  = "/fields/System.AssignedTo"
	fieldState       = "/fields/System.State"
	fieldTags        = "/fields/System.Tags"
)

// expandNames - значения $expand по порядковому номеру.
var expandNames = []string{"none", "relations", "fields", "links", "all"}

// errorPolicyNames - значения errorPolicy по порядковому номеру.
var errorPolicyNames = map[int]string{1: "fail", 2: "omit"}

var patchOps = []string{"add", "remove", "replace", "move", "copy", "test"}

func patchDocumentSchema() dispatch.Schema {
	return dispatch.Array("Array of JSON patch operations to apply", dispatch.Object(map[string]dispatch.Schema{
		"op":    dispatch.StringEnum("The patch operation to perform", patchOps...),
		"path":  dispatch.String("The path for the operation (e.g., /fields/System.Title)"),
		"value": dispatch.Any("The value for the operation"),
	}, "op", "path"))
}

func fieldProps(props map[string]dispatch.Schema) map[string]dispatch.Schema {
	props["document"] = patchDocumentSchema()
	props["title"] = dispatch.String("Work item title")
	props["description"] = dispatch.String("Work item description (HTML)")
	props["assignedTo"] = dispatch.String("User to assign the work item to")
	props["state"] = dispatch.String("Work item state (e.g., \"Active\")")
	props["tags"] = dispatch.Array("Tags to set on the work item", dispatch.Schema{"type": "string"})
	return props
}

// Operations возвращает операции шлюза в порядке каталога.
func Operations() []dispatch.Handler {
	return []dispatch.Handler{
		dispatch.Operation{
			Name:        OpGet,
			Description: "Get work items by IDs",
			Schema: dispatch.Object(map[string]dispatch.Schema{
				"ids":         dispatch.Array("Work item IDs", dispatch.Schema{"type": "number"}),
				"fields":      dispatch.Array(`Fields to include (e.g., "System.Title", "System.State")`, dispatch.Schema{"type": "string"}),
				"asOf":        dispatch.String("As of a specific date (ISO 8601)").With("format", "date-time"),
				"$expand":     dispatch.NumberEnum("Expand options (None=0, Relations=1, Fields=2, Links=3, All=4)", 0, 1, 2, 3, 4),
				"errorPolicy": dispatch.NumberEnum("Error policy (Fail=1, Omit=2)", 1, 2),
			}, "ids"),
			Run: get,
		},
		dispatch.Operation{
			Name:        OpList,
			Description: "List work items from a board",
			Schema: dispatch.Object(map[string]dispatch.Schema{
				"query": dispatch.String("WIQL query to filter work items"),
			}, "query"),
			Run: list,
		},
		dispatch.Operation{
			Name:        OpCreate,
			Description: "Create a new work item using JSON patch operations",
			Schema: dispatch.Object(fieldProps(map[string]dispatch.Schema{
				"type": dispatch.String(`Work item type (e.g., "Bug", "Task", "User Story")`),
			}), "type"),
			Run: create,
		},
		dispatch.Operation{
			Name:        OpUpdate,
			Description: "Update an existing work item using JSON patch operations",
			Schema: dispatch.Object(fieldProps(map[string]dispatch.Schema{
				"id": dispatch.Number("ID of the work item to update"),
			}), "id"),
			Run: update,
		},
	}
}

func get(ctx context.Context, env gateway.Env, args gateway.Args) (any, error) {
	ids, err := args.RequiredIntSlice("ids")
	if err != nil {
		return nil, err
	}
	fields, _, err := args.StringSlice("fields")
	if err != nil {
		return nil, err
	}
	asOf, err := args.OptionalString("asOf")
	if err != nil {
		return nil, err
	}
	expand, hasExpand, err := args.IntEnum("$expand", 0, 1, 2, 3, 4)
	if err != nil {
		return nil, err
	}
	policy, hasPolicy, err := args.IntEnum("errorPolicy", 1, 2)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 && hasExpand && expand != 0 {
		return nil, apperrors.NewValidationError("fields", "fields cannot be used together with $expand")
	}

	req := azuredevops.WorkItemBatchRequest{IDs: ids, Fields: fields, AsOf: asOf}
	if hasExpand {
		req.Expand = expandNames[expand]
	}
	if hasPolicy {
		req.ErrorPolicy = errorPolicyNames[policy]
	}

	api, err := env.Backend.WorkItems(ctx)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{})
	}
	items, err := api.GetWorkItemsBatch(ctx, env.Project(), req)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{Resource: fmt.Sprintf("Work items %v", ids)})
	}
	return items, nil
}

func list(ctx context.Context, env gateway.Env, args gateway.Args) (any, error) {
	query, err := args.RequiredString("query")
	if err != nil {
		return nil, err
	}

	api, err := env.Backend.WorkItems(ctx)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{})
	}
	res, err := api.QueryByWiql(ctx, env.Project(), query)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{})
	}
	return res, nil
}

func create(ctx context.Context, env gateway.Env, args gateway.Args) (any, error) {
	workItemType, err := args.RequiredString("type")
	if err != nil {
		return nil, err
	}
	doc, ok, err := document(args)
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, err := args.RequiredString("title"); err != nil {
			return nil, err
		}
		if doc, err = BuildPatch(args); err != nil {
			return nil, err
		}
	}

	api, err := env.Backend.WorkItems(ctx)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{})
	}
	item, err := api.CreateWorkItem(ctx, env.Project(), workItemType, doc)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{Resource: fmt.Sprintf("Work item type %s", workItemType)})
	}
	env.Log().Info("work item created", "id", item.ID, "type", workItemType)
	return item, nil
}

func update(ctx context.Context, env gateway.Env, args gateway.Args) (any, error) {
	id, err := args.RequiredInt("id")
	if err != nil {
		return nil, err
	}
	doc, ok, err := document(args)
	if err != nil {
		return nil, err
	}
	if !ok {
		if doc, err = BuildPatch(args); err != nil {
			return nil, err
		}
	}
	if len(doc) == 0 {
		return nil, apperrors.NewValidationError("document", "no fields provided for update")
	}

	api, err := env.Backend.WorkItems(ctx)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{})
	}
	item, err := api.UpdateWorkItem(ctx, env.Project(), id, doc)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{Resource: fmt.Sprintf("Work item %d", id)})
	}
	env.Log().Info("work item updated", "id", id, "operations", len(doc))
	return item, nil
}

// document возвращает явно переданный patch-документ.
func document(args gateway.Args) ([]azuredevops.PatchOperation, bool, error) {
	var doc []azuredevops.PatchOperation
	ok, err := args.Decode("document", &doc)
	if err != nil || !ok {
		return nil, ok, err
	}
	for i, op := range doc {
		if !slices.Contains(patchOps, op.Op) {
			return nil, false, apperrors.NewValidationError("document",
				fmt.Sprintf("document item %d: op must be one of %s", i, strings.Join(patchOps, ", ")))
		}
		if op.Path == "" {
			return nil, false, apperrors.NewValidationError("document", fmt.Sprintf("document item %d: path is required", i))
		}
	}
	return doc, true, nil
}

// BuildPatch строит patch-документ из title, description, assignedTo, state и tags
// именно в этом порядке, пропуская пустые поля. Теги объединяются через "; ".
func BuildPatch(args gateway.Args) ([]azuredevops.PatchOperation, error) {
	var doc []azuredevops.PatchOperation
	for _, f := range []struct{ arg, path string }{
		{"title", fieldTitle},
		{"description", fieldDescription},
		{"assignedTo", fieldAssignedTo},
		{"state", fieldState},
	} {
		v, err := args.OptionalString(f.arg)
		if err != nil {
			return nil, err
		}
		if v != "" {
			doc = append(doc, azuredevops.PatchOperation{Op: "add", Path: f.path, Value: v})
		}
	}

	tags, ok, err := args.StringSlice("tags")
	if err != nil {
		return nil, err
	}
	if ok {
		doc = append(doc, azuredevops.PatchOperation{
			Op:    "add",
			Path:  fieldTags,
			Value: strings.Join(tags, constants.TagSeparator),
		})
	}
	return doc, nil
}
