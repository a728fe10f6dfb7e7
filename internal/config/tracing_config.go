package config

import (
	"fmt"
	"time"
)

// TracingConfig содержит настройки OpenTelemetry трейсинга.
type TracingConfig struct {
	// Enabled включает отправку трейсов в OTLP бэкенд.
	Enabled bool `yaml:"enabled" env:"AZDO_TRACING_ENABLED" env-default:"false"`

	// Endpoint - URL OTLP HTTP endpoint (например, http://jaeger:4318).
	Endpoint string `yaml:"endpoint" env:"AZDO_TRACING_ENDPOINT"`

	// ServiceName - имя сервиса для resource attributes.
	ServiceName string `yaml:"serviceName" env:"AZDO_TRACING_SERVICE_NAME" env-default:"azure-devops-mcp"`

	// Environment - окружение (production, staging, development).
	Environment string `yaml:"environment" env:"AZDO_TRACING_ENVIRONMENT" env-default:"production"`

	// Insecure - использовать HTTP вместо HTTPS для OTLP endpoint.
	Insecure bool `yaml:"insecure" env:"AZDO_TRACING_INSECURE" env-default:"false"`

	// Timeout - таймаут для экспорта трейсов.
	Timeout time.Duration `yaml:"timeout" env:"AZDO_TRACING_TIMEOUT" env-default:"5s"`

	// SamplingRate - доля сэмплируемых трейсов (0.0 - ни один, 1.0 - все).
	SamplingRate float64 `yaml:"samplingRate" env:"AZDO_TRACING_SAMPLING_RATE" env-default:"1.0"`
}

// validateTracingConfig проверяет обязательные поля при включённом трейсинге.
func validateTracingConfig(tc *TracingConfig) error {
	if !tc.Enabled {
		return nil
	}
	if tc.Endpoint == "" {
		return fmt.Errorf("tracing: endpoint обязателен при enabled=true")
	}
	if tc.ServiceName == "" {
		return fmt.Errorf("tracing: service name обязателен при enabled=true")
	}
	if tc.Timeout <= 0 {
		return fmt.Errorf("tracing: timeout должен быть положительным")
	}
	if tc.SamplingRate < 0.0 || tc.SamplingRate > 1.0 {
		return fmt.Errorf("tracing: sampling rate должен быть от 0.0 до 1.0, получено: %g", tc.SamplingRate)
	}
	return nil
}
