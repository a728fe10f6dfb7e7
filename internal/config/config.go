// Package config загружает конфигурацию сервера и разрешает параметры
// подключения к Azure DevOps.
//
// Источники в порядке приоритета: явные значения (флаги CLI), переменные
// окружения, необязательный YAML файл, значения по умолчанию.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/apperrors"
)

// ServerConfig - параметры MCP сервера.
type ServerConfig struct {
	// Name - имя, сообщаемое клиенту при initialize.
	Name string `yaml:"name" env:"AZDO_SERVER_NAME" env-default:"azure-devops-server"`

	// ShutdownTimeout ограничивает push метрик и flush трейсов при завершении.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" env:"AZDO_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// Config - полная конфигурация процесса.
type Config struct {
	AzureDevOps AzureDevOpsConfig `yaml:"azureDevOps"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Tracing     TracingConfig     `yaml:"tracing"`
	Server      ServerConfig      `yaml:"server"`

	// Source - путь к прочитанному YAML файлу, пусто если файла не было.
	Source string `yaml:"-"`
}

// Load читает YAML файл path (если задан), применяет переменные окружения
// и проверяет секции метрик и трейсинга.
// Учётные данные здесь не проверяются: это делает Resolve.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // путь задаёт оператор
		if err != nil {
			return nil, apperrors.NewAppError(apperrors.ErrConfigLoad,
				fmt.Sprintf("failed to read config file %s", path), err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, apperrors.NewAppError(apperrors.ErrConfigLoad,
				fmt.Sprintf("failed to parse config file %s", path), err)
		}
		cfg.Source = path
	}

	// env-default применяется только к полям, не заданным в YAML.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrConfigLoad,
			"failed to read environment", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewConfigurationError(err.Error(), nil)
	}
	return &cfg, nil
}

// Validate проверяет секции, не связанные с учётными данными.
func (c *Config) Validate() error {
	var errs []error
	if c.AzureDevOps.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("azureDevOps: timeout должен быть положительным"))
	}
	if c.AzureDevOps.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("azureDevOps: rate limit не может быть отрицательным"))
	}
	if c.AzureDevOps.RateLimit > 0 && c.AzureDevOps.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("azureDevOps: rate burst должен быть не меньше 1"))
	}
	if err := validateMetricsConfig(&c.Metrics); err != nil {
		errs = append(errs, err)
	}
	if err := validateTracingConfig(&c.Tracing); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Resolve разрешает Target из конфигурации и явных значений.
func (c *Config) Resolve(ov Overrides) (Target, error) {
	return Resolve(ov, c.AzureDevOps)
}
