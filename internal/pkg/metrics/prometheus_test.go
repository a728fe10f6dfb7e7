package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/logging"
)

// value читает текущее значение counter или gauge.
func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	if out.Counter != nil {
		return out.GetCounter().GetValue()
	}
	return out.GetGauge().GetValue()
}

func newTestCollector(t *testing.T, url string) *PrometheusCollector {
	t.Helper()
	collector, err := NewPrometheusCollector(Config{
		Enabled:        true,
		PushgatewayURL: url,
		JobName:        "azure-devops-mcp",
		Timeout:        5 * time.Second,
		InstanceLabel:  "test-host",
	}, logging.NewNopLogger())
	require.NoError(t, err)
	return collector
}

func TestPrometheusCollector_RecordTool(t *testing.T) {
	collector := newTestCollector(t, "http://localhost:9091")

	collector.RecordToolStart("list_projects", "Fabrikam")
	assert.Equal(t, 1.0, value(t, collector.toolInFlight.WithLabelValues("list_projects")))

	collector.RecordToolEnd("list_projects", "Fabrikam", "", 150*time.Millisecond, true)
	collector.RecordToolStart("get_wiki_page", "Fabrikam")
	collector.RecordToolEnd("get_wiki_page", "Fabrikam", "WikiPageNotFoundError", 80*time.Millisecond, false)

	assert.Equal(t, 0.0, value(t, collector.toolInFlight.WithLabelValues("list_projects")))
	assert.Equal(t, 1.0, value(t, collector.toolSuccess.WithLabelValues("list_projects", "Fabrikam")))
	assert.Equal(t, 1.0, value(t,
		collector.toolError.WithLabelValues("get_wiki_page", "Fabrikam", "WikiPageNotFoundError")))

	families, err := collector.Registry().Gather()
	require.NoError(t, err)
	found := make(map[string]bool)
	for _, m := range families {
		found[m.GetName()] = true
	}
	assert.True(t, found["azdo_mcp_tool_duration_seconds"], "должен быть histogram duration")
	assert.True(t, found["azdo_mcp_tool_success_total"], "должен быть counter success")
	assert.True(t, found["azdo_mcp_tool_error_total"], "должен быть counter error")
}

func TestPrometheusCollector_UnknownKind(t *testing.T) {
	collector := newTestCollector(t, "http://localhost:9091")
	collector.RecordToolEnd("trigger_pipeline", "P", "", time.Second, false)
	assert.Equal(t, 1.0, value(t, collector.toolError.WithLabelValues("trigger_pipeline", "P", "unknown")))
}

func TestPrometheusCollector_Push(t *testing.T) {
	var method, path atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method.Store(r.Method)
		path.Store(r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	collector := newTestCollector(t, server.URL)
	collector.RecordToolEnd("list_projects", "P", "", time.Second, true)

	require.NoError(t, collector.Push(context.Background()))
	assert.Equal(t, http.MethodPut, method.Load())
	p, _ := path.Load().(string)
	assert.True(t, strings.Contains(p, "/job/azure-devops-mcp"), "path должен содержать job: %s", p)
	assert.True(t, strings.Contains(p, "/instance/test-host"), "path должен содержать instance: %s", p)
}

func TestPrometheusCollector_PushErrorIsSwallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	collector := newTestCollector(t, server.URL)
	assert.NoError(t, collector.Push(context.Background()), "ошибка Pushgateway не должна возвращаться")
}

func TestPrometheusCollector_PushCancelled(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	collector := newTestCollector(t, server.URL)
	assert.NoError(t, collector.Push(ctx))
	assert.Zero(t, calls.Load(), "отменённый контекст не должен вызывать Pushgateway")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"выключено", Config{}, nil},
		{"нет url", Config{Enabled: true, JobName: "j", Timeout: time.Second}, ErrPushgatewayURLRequired},
		{"плохой url", Config{Enabled: true, PushgatewayURL: "pushgateway", JobName: "j", Timeout: time.Second}, ErrPushgatewayURLInvalid},
		{"нет job", Config{Enabled: true, PushgatewayURL: "http://pg:9091", Timeout: time.Second}, ErrJobNameRequired},
		{"нулевой timeout", Config{Enabled: true, PushgatewayURL: "http://pg:9091", JobName: "j"}, ErrInvalidTimeout},
		{"валидно", Config{Enabled: true, PushgatewayURL: "http://pg:9091", JobName: "j", Timeout: time.Second}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "ожидалась %v, получено %v", tt.want, err)
		})
	}
}

func TestNewCollector(t *testing.T) {
	c, err := NewCollector(DefaultConfig(), logging.NewNopLogger())
	require.NoError(t, err)
	_, isNop := c.(*NopCollector)
	assert.True(t, isNop, "выключенные метрики должны давать NopCollector")

	_, err = NewCollector(Config{Enabled: true}, logging.NewNopLogger())
	assert.ErrorIs(t, err, ErrPushgatewayURLRequired)
}

func TestSanitizeLabel(t *testing.T) {
	assert.Equal(t, "a_b", sanitizeLabel("a\nb"))
	assert.Len(t, []rune(sanitizeLabel(strings.Repeat("я", 200))), maxLabelLength)
}
