package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/constants"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/apperrors"
)

// AzureDevOpsConfig - снимок окружения для подключения к Azure DevOps.
// Секрет PAT читается только из env, в YAML его не кладут.
type AzureDevOpsConfig struct {
	// PAT - Personal Access Token.
	PAT string `yaml:"-" env:"AZURE_DEVOPS_PAT"`

	// Organization - имя организации, например "contoso".
	Organization string `yaml:"organization" env:"AZURE_DEVOPS_ORG"`

	// Project - проект по умолчанию для всех операций.
	Project string `yaml:"project" env:"AZURE_DEVOPS_PROJECT"`

	// BaseURL - адрес сервиса. Для Azure DevOps Server указывается collection URL без организации.
	BaseURL string `yaml:"baseUrl" env:"AZURE_DEVOPS_BASE_URL" env-default:"https://dev.azure.com"`

	// APIVersion - версия REST API, добавляется к каждому запросу.
	APIVersion string `yaml:"apiVersion" env:"AZURE_DEVOPS_API_VERSION" env-default:"7.0"`

	// Timeout - таймаут одного HTTP запроса.
	Timeout time.Duration `yaml:"timeout" env:"AZURE_DEVOPS_TIMEOUT" env-default:"30s"`

	// RateLimit - запросов в секунду к backend, 0 - без ограничения.
	RateLimit float64 `yaml:"rateLimit" env:"AZURE_DEVOPS_RATE_LIMIT" env-default:"0"`

	// RateBurst - размер burst для RateLimit.
	RateBurst int `yaml:"rateBurst" env:"AZURE_DEVOPS_RATE_BURST" env-default:"10"`
}

// Overrides - явные значения, имеющие приоритет над окружением (флаги CLI).
// nil означает "не задано".
type Overrides struct {
	PAT          *string
	Organization *string
	Project      *string
	BaseURL      *string
}

// organizationPattern - допустимое имя организации.
var organizationPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Target - неизменяемая разрешённая конфигурация подключения.
// Поля скрыты, чтобы после Resolve значение нельзя было изменить.
type Target struct {
	pat          string
	organization string
	project      string
	orgURL       string
}

// PAT возвращает токен доступа.
func (t Target) PAT() string { return t.pat }

// Organization возвращает имя организации.
func (t Target) Organization() string { return t.organization }

// Project возвращает проект по умолчанию.
func (t Target) Project() string { return t.project }

// OrganizationURL возвращает base + "/" + organization.
func (t Target) OrganizationURL() string { return t.orgURL }

// IsZero сообщает, что Target не был получен через Resolve.
func (t Target) IsZero() bool { return t == Target{} }

// String не раскрывает PAT.
func (t Target) String() string {
	return fmt.Sprintf("%s (project %s)", t.orgURL, t.project)
}

// Resolve вычисляет Target из явных значений и снимка окружения.
// Проверки идут в порядке PAT, организация, проект; первая отсутствующая
// даёт ConfigurationError с именем переменной окружения.
func Resolve(ov Overrides, env AzureDevOpsConfig) (Target, error) {
	pat := pick(ov.PAT, env.PAT)
	org := pick(ov.Organization, env.Organization)
	project := pick(ov.Project, env.Project)
	base := pick(ov.BaseURL, env.BaseURL)

	for _, req := range []struct{ value, name string }{
		{pat, constants.EnvPAT},
		{org, constants.EnvOrg},
		{project, constants.EnvProject},
	} {
		if req.value == "" {
			return Target{}, apperrors.NewConfigurationError(
				fmt.Sprintf("%s environment variable is required", req.name), nil)
		}
	}

	if !organizationPattern.MatchString(org) {
		return Target{}, apperrors.NewConfigurationError(
			fmt.Sprintf("invalid organization %q: only letters, digits, '-' and '_' are allowed", org), nil)
	}

	baseURL, err := normalizeBaseURL(base)
	if err != nil {
		return Target{}, err
	}

	return Target{
		pat:          pat,
		organization: org,
		project:      project,
		orgURL:       baseURL + "/" + org,
	}, nil
}

// NewTarget собирает Target без чтения окружения.
// Ошибки валидации те же, что у Resolve.
func NewTarget(pat, organization, project, baseURL string) (Target, error) {
	return Resolve(Overrides{
		PAT:          &pat,
		Organization: &organization,
		Project:      &project,
		BaseURL:      &baseURL,
	}, AzureDevOpsConfig{})
}

// pick возвращает override, если он задан и не пуст после trim, иначе значение окружения.
func pick(override *string, env string) string {
	if override != nil {
		if v := strings.TrimSpace(*override); v != "" {
			return v
		}
	}
	return strings.TrimSpace(env)
}

// normalizeBaseURL оставляет scheme, host и path prefix без завершающего слеша.
func normalizeBaseURL(raw string) (string, error) {
	if raw == "" {
		raw = constants.DefaultBaseURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return "", apperrors.NewConfigurationError(
			fmt.Sprintf("invalid base URL %q: expected http(s)://host[/path]", raw), err)
	}
	return u.Scheme + "://" + u.Host + strings.TrimRight(u.Path, "/"), nil
}
