package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/constants"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdio (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := opts.bootstrap(cmd)
			if err != nil {
				return err
			}
			defer func() {
				// ctx уже может быть отменён сигналом.
				_ = app.Shutdown(context.WithoutCancel(ctx)) //nolint:errcheck // ошибки залогированы в Shutdown
			}()

			app.Logger.Info("starting server",
				"name", app.Config.Server.Name,
				"version", constants.Version,
				"commit", constants.PreCommitHash,
			)
			return app.Server.ServeStdio(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
