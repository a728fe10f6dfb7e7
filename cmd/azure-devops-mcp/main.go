// Package main - точка входа MCP сервера Azure DevOps.
//
// Без подкоманды запускается serve: MCP по stdio, логи в stderr.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

// run выполняет команду и возвращает exit code.
// os.Exit вызывается только в main, чтобы отработали defer-ы (push метрик, flush трейсов).
func run(ctx context.Context, args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		return exitCode(err)
	}
	return ExitCodeSuccess
}
