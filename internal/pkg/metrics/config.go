package metrics

import (
	"errors"
	"net/url"
	"time"
)

var (
	// ErrPushgatewayURLRequired возвращается если не указан URL Pushgateway при включённых метриках.
	ErrPushgatewayURLRequired = errors.New("pushgateway URL is required when metrics enabled")

	// ErrPushgatewayURLInvalid возвращается если URL Pushgateway имеет невалидный формат.
	ErrPushgatewayURLInvalid = errors.New("pushgateway URL has invalid format")

	// ErrJobNameRequired возвращается если не указано имя job.
	ErrJobNameRequired = errors.New("job name is required")

	// ErrInvalidTimeout возвращается если указан невалидный таймаут.
	ErrInvalidTimeout = errors.New("timeout must be positive")
)

// Config содержит настройки сбора метрик вызовов инструментов.
type Config struct {
	Enabled bool

	// PushgatewayURL - URL Prometheus Pushgateway, например "http://pushgateway:9091".
	PushgatewayURL string

	// JobName - имя job для группировки метрик.
	JobName string

	// Timeout - таймаут HTTP запроса к Pushgateway.
	Timeout time.Duration

	// InstanceLabel - переопределение instance label. Пусто - hostname.
	InstanceLabel string
}

// Validate проверяет корректность конфигурации.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.PushgatewayURL == "" {
		return ErrPushgatewayURLRequired
	}
	u, err := url.Parse(c.PushgatewayURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrPushgatewayURLInvalid
	}
	if c.JobName == "" {
		return ErrJobNameRequired
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// DefaultConfig возвращает конфигурацию по умолчанию (метрики выключены).
func DefaultConfig() Config {
	return Config{
		JobName: "azure-devops-mcp",
		Timeout: 10 * time.Second,
	}
}
