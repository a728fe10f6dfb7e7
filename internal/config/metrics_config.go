package config

import (
	"fmt"
	"time"
)

// MetricsConfig содержит настройки Prometheus метрик.
type MetricsConfig struct {
	// Enabled - включены ли метрики (по умолчанию false).
	Enabled bool `yaml:"enabled" env:"AZDO_METRICS_ENABLED" env-default:"false"`

	// PushgatewayURL - URL Prometheus Pushgateway, например "http://pushgateway:9091".
	PushgatewayURL string `yaml:"pushgatewayUrl" env:"AZDO_METRICS_PUSHGATEWAY_URL"`

	// JobName - имя job для группировки метрик.
	JobName string `yaml:"jobName" env:"AZDO_METRICS_JOB_NAME" env-default:"azure-devops-mcp"`

	// Timeout - таймаут HTTP запросов к Pushgateway.
	Timeout time.Duration `yaml:"timeout" env:"AZDO_METRICS_TIMEOUT" env-default:"10s"`

	// InstanceLabel - переопределение instance label. Пусто - hostname.
	InstanceLabel string `yaml:"instanceLabel" env:"AZDO_METRICS_INSTANCE"`
}

// validateMetricsConfig проверяет обязательные поля при включённых метриках.
func validateMetricsConfig(mc *MetricsConfig) error {
	if !mc.Enabled {
		return nil
	}
	if mc.PushgatewayURL == "" {
		return fmt.Errorf("metrics: pushgateway_url обязателен при enabled=true")
	}
	if mc.Timeout <= 0 {
		return fmt.Errorf("metrics: timeout должен быть положительным")
	}
	return nil
}
