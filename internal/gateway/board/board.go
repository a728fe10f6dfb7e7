// Package board - шлюз операций над досками команды.
package board

import (
	"context"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/constants"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/dispatch"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/gateway"
)

// OpGet - имя операции получения досок.
const OpGet = "get_boards"

// Operations возвращает операции шлюза.
func Operations() []dispatch.Handler {
	return []dispatch.Handler{
		dispatch.Operation{
			Name:        OpGet,
			Description: "List available boards in the project",
			Schema: dispatch.Object(map[string]dispatch.Schema{
				"team": dispatch.String("Team name (optional)"),
			}),
			Run: get,
		},
	}
}

// DefaultTeam возвращает имя команды по умолчанию для проекта.
func DefaultTeam(project string) string {
	return project + constants.TeamSuffix
}

func get(ctx context.Context, env gateway.Env, args gateway.Args) (any, error) {
	team, err := args.OptionalString("team")
	if err != nil {
		return nil, err
	}
	if team == "" {
		team = DefaultTeam(env.Project())
	}

	api, err := env.Backend.Work(ctx)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{})
	}
	boards, err := api.ListBoards(ctx, env.Project(), team)
	if err != nil {
		return nil, gateway.Fail(err, gateway.ErrorContext{Resource: "Team " + team})
	}
	return boards, nil
}
