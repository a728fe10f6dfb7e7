package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/config"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/connection"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/gateway"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/apperrors"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/logging"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/metrics"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/tracing"
)

// Connection - источник конфигурации и sub-API. Реализуется connection.Cache.
// Pin атомарно возвращает конфигурацию и Backend того же поколения: вызов
// не смешивает клиента новой организации с проектом прежней.
type Connection interface {
	Pin() (config.Target, gateway.Backend, bool)
}

var _ Connection = (*connection.Cache)(nil)

// Dispatcher маршрутизирует вызовы операций к шлюзам.
type Dispatcher struct {
	registry *Registry
	conn     Connection
	logger   logging.Logger
	metrics  metrics.Collector
}

// NewDispatcher создаёт Dispatcher. Nil logger и collector заменяются на Nop.
func NewDispatcher(registry *Registry, conn Connection, logger logging.Logger, collector metrics.Collector) *Dispatcher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if collector == nil {
		collector = metrics.NewNopCollector()
	}
	return &Dispatcher{
		registry: registry,
		conn:     conn,
		logger:   logger,
		metrics:  collector,
	}
}

// ListOperations возвращает статический каталог операций.
func (d *Dispatcher) ListOperations() []Descriptor {
	return d.registry.Descriptors()
}

// Check возвращает *Error, если вызов name с args будет отклонён до выполнения:
// операция неизвестна или Argument Bag обязателен, но не передан.
func (d *Dispatcher) Check(name string, args map[string]any) error {
	h, ok := d.registry.Get(name)
	if !ok {
		return &Error{Code: MethodNotFound, Message: fmt.Sprintf("Unknown tool: %s", name)}
	}
	if args == nil {
		if msg := h.MissingArgsMessage(); msg != "" {
			return &Error{Code: InvalidParams, Message: msg}
		}
	}
	return nil
}

// Invoke выполняет операцию name. Go-ошибку возвращают только сбои
// диспетчеризации (*Error); доменные ошибки приходят как Envelope{IsError: true}.
// args == nil означает, что Argument Bag не передан.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args map[string]any) (*Envelope, error) {
	if err := d.Check(name, args); err != nil {
		return nil, err
	}
	h, _ := d.registry.Get(name)
	if args == nil {
		args = map[string]any{}
	}

	traceID := tracing.TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = tracing.GenerateTraceID()
		ctx = tracing.WithTraceID(ctx, traceID)
	}
	ctx = tracing.ContextWithOTelTraceID(ctx, traceID)
	ctx, span := tracing.Tracer().Start(ctx, "tool "+name)
	defer span.End()
	span.SetAttributes(attribute.String("mcp.tool", name))

	log := d.logger.With("tool", name, "trace_id", traceID)
	target, backend, initialized := d.conn.Pin()
	project := target.Project()

	start := time.Now()
	d.metrics.RecordToolStart(name, project)
	log.Debug("tool call started")

	result, err := d.execute(ctx, h, target, backend, initialized, args, log)
	duration := time.Since(start)

	if err != nil {
		appErr := gateway.Normalize(err, gateway.ErrorContext{})
		kind := appErr.Kind()
		d.metrics.RecordToolEnd(name, project, string(kind), duration, false)
		span.RecordError(appErr)
		span.SetStatus(codes.Error, string(kind))
		log.Warn("tool call failed",
			"kind", string(kind),
			"code", appErr.Code,
			"status", appErr.StatusCode,
			"duration_ms", duration.Milliseconds(),
			"error", appErr.Error(),
		)
		return ErrorEnvelope(appErr.Error()), nil
	}

	env, err := Wrap(result)
	if err != nil {
		d.metrics.RecordToolEnd(name, project, string(apperrors.KindAPI), duration, false)
		span.SetStatus(codes.Error, err.Error())
		log.Error("tool result serialization failed", "error", err.Error())
		return ErrorEnvelope(err.Error()), nil
	}

	d.metrics.RecordToolEnd(name, project, "", duration, !env.IsError)
	log.Info("tool call completed", "duration_ms", duration.Milliseconds(), "is_error", env.IsError)
	return env, nil
}

func (d *Dispatcher) execute(ctx context.Context, h Handler, target config.Target, backend gateway.Backend, initialized bool, args gateway.Args, log logging.Logger) (any, error) {
	name := h.Descriptor().Name
	if v := d.registry.validator(name); v != nil {
		if err := v.Validate(args); err != nil {
			return nil, err
		}
	}
	if !initialized {
		return nil, apperrors.NewConfigurationError(connection.ErrNotInitialized, nil)
	}

	env := gateway.Env{
		Target:  target,
		Backend: backend,
		Logger:  log,
	}
	return h.Execute(ctx, env, args)
}
