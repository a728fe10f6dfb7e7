package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/config"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/constants"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/di"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/apperrors"
)

// Exit codes.
const (
	ExitCodeSuccess = 0
	// ExitCodeError - любая ошибка, кроме конфигурации.
	ExitCodeError = 1
	// ExitCodeConfig - не хватает учётных данных или конфигурация невалидна.
	ExitCodeConfig = 2
)

// errToolFailed - вызов call завершился доменной ошибкой (envelope уже выведен).
var errToolFailed = errors.New("tool call returned an error result")

// globalOptions - флаги, общие для serve и call.
type globalOptions struct {
	configPath   string
	pat          string
	organization string
	project      string
	baseURL      string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   constants.AppName,
		Short: "MCP server exposing Azure DevOps work items, boards, wikis, pipelines and pull requests",
		Long: `azure-devops-mcp publishes a fixed catalog of Azure DevOps operations as MCP tools
over stdio. Credentials come from flags or AZURE_DEVOPS_PAT, AZURE_DEVOPS_ORG and
AZURE_DEVOPS_PROJECT.`,
		Version:       constants.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`{{printf "azure-devops-mcp version %s\n" .Version}}`)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to YAML config file (env "+constants.EnvConfigFile+")")
	pf.StringVar(&opts.pat, "pat", "", "personal access token (env "+constants.EnvPAT+")")
	pf.StringVar(&opts.organization, "org", "", "organization name (env "+constants.EnvOrg+")")
	pf.StringVar(&opts.project, "project", "", "default project (env "+constants.EnvProject+")")
	pf.StringVar(&opts.baseURL, "base-url", "", "service base URL (env AZURE_DEVOPS_BASE_URL)")

	serve := newServeCmd(opts)
	root.RunE = serve.RunE
	root.AddCommand(serve, newToolsCmd(), newCallCmd(opts), newVersionCmd())
	return root
}

// overrides собирает явные значения: только флаги, заданные в командной строке.
func (o *globalOptions) overrides(cmd *cobra.Command) config.Overrides {
	var ov config.Overrides
	flags := cmd.Flags()
	if flags.Changed("pat") {
		ov.PAT = &o.pat
	}
	if flags.Changed("org") {
		ov.Organization = &o.organization
	}
	if flags.Changed("project") {
		ov.Project = &o.project
	}
	if flags.Changed("base-url") {
		ov.BaseURL = &o.baseURL
	}
	return ov
}

// bootstrap загружает конфигурацию, собирает App и привязывает подключение.
func (o *globalOptions) bootstrap(cmd *cobra.Command) (*di.App, error) {
	path := o.configPath
	if path == "" {
		path = os.Getenv(constants.EnvConfigFile)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	app, err := di.InitializeApp(cfg)
	if err != nil {
		return nil, err
	}
	if err := app.Initialize(o.overrides(cmd)); err != nil {
		return nil, err
	}
	return app, nil
}

// exitCode сопоставляет ошибку с кодом возврата.
func exitCode(err error) int {
	if apperrors.IsKind(err, apperrors.KindConfiguration) {
		return ExitCodeConfig
	}
	return ExitCodeError
}
