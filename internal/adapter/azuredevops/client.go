package azuredevops

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/constants"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/logging"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/tracing"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/urlutil"
)

// Content types запросов Azure DevOps.
const (
	contentTypeJSON      = "application/json"
	contentTypeJSONPatch = "application/json-patch+json"
)

// sessionHeader связывает на стороне сервера все запросы одного подключения.
const sessionHeader = "X-TFS-Session"

// DefaultTimeout применяется при нулевом Options.Timeout.
const DefaultTimeout = 30 * time.Second

// Options - настройки Client.
type Options struct {
	// OrganizationURL is "<base>/<organization>", e.g. "https://dev.azure.com/contoso".
	OrganizationURL string
	// PAT - персональный токен доступа.
	PAT string
	// APIVersion добавляется к каждому запросу как api-version.
	APIVersion string
	// Timeout ограничивает каждый HTTP запрос. Игнорируется при заданном HTTPClient.
	Timeout time.Duration
	// RateLimit - максимум запросов в секунду, 0 отключает ограничение.
	RateLimit float64
	// RateBurst - burst ограничителя.
	RateBurst int
	// HTTPClient заменяет клиент по умолчанию (тесты).
	HTTPClient *http.Client
	// Logger получает диагностику запросов. Nil отключает логирование.
	Logger logging.Logger
}

// Client - аутентифицированное подключение к одной организации Azure DevOps.
// Безопасен для конкурентного использования и не меняется после NewClient.
type Client struct {
	orgURL     string
	authHeader string
	apiVersion string
	sessionID  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     logging.Logger
}

// NewClient создаёт Client. Каждый вызов получает новый session id.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	apiVersion := opts.APIVersion
	if apiVersion == "" {
		apiVersion = constants.DefaultAPIVersion
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	token := base64.StdEncoding.EncodeToString([]byte(":" + opts.PAT))

	return &Client{
		orgURL:     strings.TrimRight(opts.OrganizationURL, "/"),
		authHeader: "Basic " + token,
		apiVersion: apiVersion,
		sessionID:  uuid.NewString(),
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger,
	}
}

// OrganizationURL возвращает URL организации клиента.
func (c *Client) OrganizationURL() string { return c.orgURL }

// SessionID возвращает id, передаваемый в заголовке X-TFS-Session.
func (c *Client) SessionID() string { return c.sessionID }

// request описывает один REST вызов относительно URL организации.
type request struct {
	method string
	// segments - сегменты пути после организации, экранируются по отдельности.
	segments    []string
	query       url.Values
	body        any
	contentType string
	header      http.Header
}

// response - успешный ответ без разбора.
type response struct {
	body   []byte
	header http.Header
}

func (c *Client) buildURL(r request) string {
	var b strings.Builder
	b.WriteString(c.orgURL)
	for _, s := range r.segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}

	q := url.Values{}
	for k, v := range r.query {
		q[k] = v
	}
	q.Set("api-version", c.apiVersion)

	b.WriteByte('?')
	b.WriteString(q.Encode())
	return b.String()
}

// send выполняет запрос и возвращает тело успешного ответа.
func (c *Client) send(ctx context.Context, r request) (*response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	var bodyReader io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.buildURL(r), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	for k, v := range r.header {
		req.Header[k] = v
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set(sessionHeader, c.sessionID)
	req.Header.Set("User-Agent", constants.AppName+"/"+constants.Version)
	if r.body != nil {
		contentType := r.contentType
		if contentType == "" {
			contentType = contentTypeJSON
		}
		req.Header.Set("Content-Type", contentType)
	}

	safeURL := urlutil.RequestPath(req.URL)
	ctx, span := tracing.Tracer().Start(ctx, "azdo "+r.method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", r.method),
			attribute.String("url.full", safeURL),
		),
	)
	defer span.End()
	req = req.WithContext(ctx)

	start := time.Now()
	resp, err := c.execute(req)
	duration := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug("azure devops request failed",
			"method", r.method, "url", safeURL, "duration_ms", duration.Milliseconds(), "error", err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.status))
	c.logger.Debug("azure devops request",
		"method", r.method, "url", safeURL, "status", resp.status, "duration_ms", duration.Milliseconds())

	if !successful(resp.status) {
		respErr := &ResponseError{
			StatusCode: resp.status,
			Status:     resp.statusText,
			Method:     r.method,
			URL:        safeURL,
			Body:       resp.body,
		}
		span.SetStatus(codes.Error, respErr.Status)
		return nil, respErr
	}

	return &response{body: resp.body, header: resp.header}, nil
}

// rawResponse - результат execute при любом статусе.
type rawResponse struct {
	status     int
	statusText string
	header     http.Header
	body       []byte
}

// execute выполняет HTTP запрос без повторов и читает тело целиком.
func (c *Client) execute(req *http.Request) (*rawResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		if errBody := resp.Body.Close(); errBody != nil {
			c.logger.Warn("failed to close response body", "error", errBody.Error())
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &rawResponse{
		status:     resp.StatusCode,
		statusText: resp.Status,
		header:     resp.Header,
		body:       body,
	}, nil
}

// successful считает 203 ошибкой: это страница входа при неверном PAT.
func successful(status int) bool {
	return status >= 200 && status < 300 && status != http.StatusNonAuthoritativeInfo
}

// do отправляет запрос и декодирует JSON ответ в out (если out не nil).
func (c *Client) do(ctx context.Context, r request, out any) (*response, error) {
	resp, err := c.send(ctx, r)
	if err != nil {
		return nil, err
	}
	if out != nil && len(resp.body) > 0 {
		if err := json.Unmarshal(resp.body, out); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp, nil
}

// listResponse - обёртка коллекций в ответах списочных методов Azure DevOps.
type listResponse[T any] struct {
	Count int `json:"count"`
	Value []T `json:"value"`
}

// getList выполняет GET коллекции и возвращает её элементы.
func getList[T any](ctx context.Context, c *Client, segments []string, query url.Values) ([]T, error) {
	var out listResponse[T]
	if _, err := c.do(ctx, request{method: http.MethodGet, segments: segments, query: query}, &out); err != nil {
		return nil, err
	}
	if out.Value == nil {
		out.Value = []T{}
	}
	return out.Value, nil
}
