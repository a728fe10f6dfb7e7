package metrics

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/logging"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/urlutil"
)

const namespace = "azdo_mcp"

// PrometheusCollector реализует Collector с Prometheus метриками:
//   - azdo_mcp_tool_duration_seconds (histogram: tool, project, status)
//   - azdo_mcp_tool_success_total (counter: tool, project)
//   - azdo_mcp_tool_error_total (counter: tool, project, kind)
//   - azdo_mcp_tool_in_flight (gauge: tool)
type PrometheusCollector struct {
	config   Config
	logger   logging.Logger
	registry *prometheus.Registry

	toolDuration *prometheus.HistogramVec
	toolSuccess  *prometheus.CounterVec
	toolError    *prometheus.CounterVec
	toolInFlight *prometheus.GaugeVec

	instance string
}

// NewPrometheusCollector создаёт PrometheusCollector с собственным registry.
func NewPrometheusCollector(config Config, logger logging.Logger) (*PrometheusCollector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	instance := config.InstanceLabel
	if instance == "" {
		hostname, err := os.Hostname()
		if err != nil {
			logger.Warn("не удалось получить hostname для metrics instance label, используется 'unknown'",
				"error", err.Error())
			hostname = "unknown"
		}
		instance = hostname
	}

	// Вызовы Azure DevOps занимают от десятков миллисекунд до десятков секунд.
	toolDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Duration of MCP tool calls in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"tool", "project", "status"},
	)
	toolSuccess := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_success_total",
			Help:      "Total number of successful MCP tool calls",
		},
		[]string{"tool", "project"},
	)
	toolError := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_error_total",
			Help:      "Total number of failed MCP tool calls by error kind",
		},
		[]string{"tool", "project", "kind"},
	)
	toolInFlight := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tool_in_flight",
			Help:      "Number of MCP tool calls currently executing",
		},
		[]string{"tool"},
	)

	reg := prometheus.NewRegistry()
	for _, c := range []prometheus.Collector{toolDuration, toolSuccess, toolError, toolInFlight} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("ошибка регистрации метрики: %w", err)
		}
	}

	return &PrometheusCollector{
		config:       config,
		logger:       logger,
		registry:     reg,
		toolDuration: toolDuration,
		toolSuccess:  toolSuccess,
		toolError:    toolError,
		toolInFlight: toolInFlight,
		instance:     instance,
	}, nil
}

// RecordToolStart увеличивает in-flight gauge.
func (c *PrometheusCollector) RecordToolStart(tool, _ string) {
	c.toolInFlight.WithLabelValues(sanitizeLabel(tool)).Inc()
}

// maxLabelLength - максимальная длина значения label для защиты от cardinality explosion.
const maxLabelLength = 128

// sanitizeLabel обрезает значение label по рунам и заменяет контрольные символы.
func sanitizeLabel(value string) string {
	clean := strings.Map(func(r rune) rune {
		if r < 0x20 {
			return '_'
		}
		return r
	}, value)

	runes := []rune(clean)
	if len(runes) > maxLabelLength {
		return string(runes[:maxLabelLength])
	}
	return clean
}

// RecordToolEnd записывает завершение вызова инструмента.
func (c *PrometheusCollector) RecordToolEnd(tool, project, kind string, duration time.Duration, success bool) {
	tool = sanitizeLabel(tool)
	project = sanitizeLabel(project)

	status := "success"
	if !success {
		status = "error"
	}

	c.toolInFlight.WithLabelValues(tool).Dec()
	c.toolDuration.WithLabelValues(tool, project, status).Observe(duration.Seconds())

	if success {
		c.toolSuccess.WithLabelValues(tool, project).Inc()
	} else {
		if kind == "" {
			kind = "unknown"
		}
		c.toolError.WithLabelValues(tool, project, sanitizeLabel(kind)).Inc()
	}

	c.logger.Debug("metrics: tool call recorded",
		"tool", tool,
		"project", project,
		"duration_ms", duration.Milliseconds(),
		"success", success,
	)
}

// Push отправляет метрики в Pushgateway. Всегда возвращает nil.
func (c *PrometheusCollector) Push(ctx context.Context) error {
	if c.config.PushgatewayURL == "" {
		c.logger.Debug("metrics: pushgateway URL not configured, skipping push")
		return nil
	}

	select {
	case <-ctx.Done():
		c.logger.Debug("metrics push отменён")
		return nil
	default:
	}

	pusher := push.New(c.config.PushgatewayURL, c.config.JobName).
		Gatherer(c.registry).
		Grouping("instance", c.instance)

	pushCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	if err := pusher.PushContext(pushCtx); err != nil {
		c.logger.Error("ошибка отправки метрик в Pushgateway",
			"error", err.Error(),
			"url", urlutil.MaskURL(c.config.PushgatewayURL),
			"job", c.config.JobName,
		)
		return nil
	}

	c.logger.Info("метрики отправлены в Pushgateway",
		"url", urlutil.MaskURL(c.config.PushgatewayURL),
		"job", c.config.JobName,
		"instance", c.instance,
	)
	return nil
}

// Registry возвращает внутренний registry. Используется в тестах.
func (c *PrometheusCollector) Registry() *prometheus.Registry {
	return c.registry
}
