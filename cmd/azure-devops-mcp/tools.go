package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/di"
)

// newToolsCmd печатает каталог операций. Учётные данные не нужны.
func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalog as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(di.ProvideRegistry().Descriptors())
		},
	}
}
