// Package constants содержит константы, используемые в проекте azure-devops-mcp.
// Константы сгруппированы по их функциональному назначению.
package constants

import "os"

// Информация о сборке. Значения переопределяются через -ldflags при сборке:
//
//	go build -ldflags "-X github.com/stefanskiasan/azure-devops-mcp-server/internal/constants.Version=1.2.3"
var (
	// Version - версия приложения
	Version = "0.1.0"
	// PreCommitHash - хэш коммита, из которого собран бинарник
	PreCommitHash = "unknown"
)

// Идентификация MCP сервера
const (
	// ServerName - имя сервера, сообщаемое MCP клиенту при initialize
	ServerName = "azure-devops-server"
	// AppName - имя бинарника и сервиса для логов, метрик и трейсинга
	AppName = "azure-devops-mcp"
)

// Параметры Azure DevOps по умолчанию
const (
	// DefaultBaseURL - адрес облачного Azure DevOps
	DefaultBaseURL = "https://dev.azure.com"
	// DefaultAPIVersion - версия REST API
	DefaultAPIVersion = "7.0"
	// DefaultBranch - ветка для запуска pipeline, если её нет ни в аргументах, ни в definition
	DefaultBranch = "main"
	// DefaultWikiMappedPath - mapped path для новой wiki
	DefaultWikiMappedPath = "/"
	// WikiTypeProject - тип создаваемой wiki
	WikiTypeProject = "projectWiki"
	// TeamSuffix - суффикс команды по умолчанию: "<project> Team"
	TeamSuffix = " Team"
	// TagSeparator - разделитель тегов в поле System.Tags
	TagSeparator = "; "
)

// Переменные окружения с учётными данными
const (
	// EnvPAT - personal access token
	EnvPAT = "AZURE_DEVOPS_PAT"
	// EnvOrg - имя организации
	EnvOrg = "AZURE_DEVOPS_ORG"
	// EnvProject - имя проекта
	EnvProject = "AZURE_DEVOPS_PROJECT"
	// EnvConfigFile - путь к необязательному YAML файлу конфигурации
	EnvConfigFile = "AZDO_CONFIG_FILE"
)

// DirPermLogs - права на создаваемую директорию файла логов (owner rwx, group r-x)
const DirPermLogs os.FileMode = 0750
