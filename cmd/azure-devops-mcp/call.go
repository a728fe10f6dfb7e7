package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/apperrors"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/output"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/tracing"
)

// envOutputFormat задаёт формат вывода call, если --output не указан.
const envOutputFormat = "AZDO_OUTPUT_FORMAT"

func newCallCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "call <tool> [json-args]",
		Short: "Invoke one tool and print the result",
		Long: `call invokes a single tool with an optional JSON object of arguments and
prints the result. Omitting json-args calls the tool without an argument bag.`,
		Example: `  azure-devops-mcp call list_projects
  azure-devops-mcp call get_work_item '{"ids":[42]}' --output text`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := args[0]
			var bag map[string]any
			if len(args) == 2 {
				if err := json.Unmarshal([]byte(args[1]), &bag); err != nil {
					return apperrors.NewValidationError("json-args", fmt.Sprintf("arguments must be a JSON object: %v", err))
				}
				if bag == nil {
					bag = map[string]any{}
				}
			}

			app, err := opts.bootstrap(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = app.Shutdown(context.WithoutCancel(cmd.Context())) //nolint:errcheck // ошибки залогированы в Shutdown
			}()

			if !cmd.Flags().Changed("output") {
				if v := os.Getenv(envOutputFormat); v != "" {
					format = v
				}
			}
			writer := output.NewWriter(format)

			traceID := tracing.GenerateTraceID()
			ctx := tracing.WithTraceID(cmd.Context(), traceID)
			start := time.Now()

			env, err := app.Dispatcher.Invoke(ctx, tool, bag)
			if err != nil {
				if werr := writer.Write(cmd.OutOrStdout(), output.FromError(tool, err, time.Since(start), traceID)); werr != nil {
					app.Logger.Warn("failed to write result", "error", werr.Error())
				}
				return err
			}

			if err := writer.Write(cmd.OutOrStdout(), output.FromEnvelope(tool, env, time.Since(start), traceID)); err != nil {
				return err
			}
			if env.IsError {
				return errToolFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", output.FormatJSON, "output format: json or text (env "+envOutputFormat+")")
	return cmd
}
