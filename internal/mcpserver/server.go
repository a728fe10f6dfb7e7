// Package mcpserver публикует операции диспетчера как MCP инструменты
// поверх github.com/mark3labs/mcp-go и обслуживает stdio транспорт.
package mcpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/dispatch"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/logging"
)

// Invoker - то, что сервер требует от диспетчера.
// Check выполняет проверки Invoke, дающие *dispatch.Error, без вызова операции.
type Invoker interface {
	ListOperations() []dispatch.Descriptor
	Check(name string, args map[string]any) error
	Invoke(ctx context.Context, name string, args map[string]any) (*dispatch.Envelope, error)
}

var _ Invoker = (*dispatch.Dispatcher)(nil)

// Server - MCP сервер с инструментами из каталога операций.
type Server struct {
	mcp     *server.MCPServer
	invoker Invoker
	logger  logging.Logger
}

// New создаёт сервер и регистрирует все операции каталога.
func New(name, version string, invoker Invoker, logger logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Server{
		mcp: server.NewMCPServer(
			name,
			version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		invoker: invoker,
		logger:  logger,
	}

	tools, err := s.tools()
	if err != nil {
		return nil, err
	}
	s.mcp.AddTools(tools...)
	logger.Debug("mcp tools registered", "count", len(tools))
	return s, nil
}

// MCP возвращает нижележащий mcp-go сервер.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

func (s *Server) tools() ([]server.ServerTool, error) {
	ops := s.invoker.ListOperations()
	out := make([]server.ServerTool, 0, len(ops))
	for _, op := range ops {
		schema, err := json.Marshal(op.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal schema for tool %s: %w", op.Name, err)
		}
		out = append(out, server.ServerTool{
			Tool: mcp.Tool{
				Name:           op.Name,
				Description:    op.Description,
				RawInputSchema: schema,
			},
			Handler: s.handler(op.Name),
		})
	}
	return out, nil
}

// handler возвращает обработчик инструмента name. Доменные ошибки уходят
// результатом с isError, ошибки диспетчеризации отсекает HandleMessage.
func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := argumentBag(req.Params.Arguments)
		if err != nil {
			return nil, err
		}

		env, err := s.invoker.Invoke(ctx, name, args)
		if err != nil {
			s.logger.Warn("tool call rejected", "tool", name, "error", err.Error())
			return nil, err
		}
		return ToResult(env), nil
	}
}

// argumentBag сужает arguments вызова до Argument Bag. nil означает, что аргументы не переданы.
func argumentBag(raw any) (map[string]any, error) {
	switch a := raw.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return a, nil
	default:
		return nil, &dispatch.Error{
			Code:    dispatch.InvalidParams,
			Message: fmt.Sprintf("arguments must be an object, got %T", raw),
		}
	}
}

// HandleMessage обрабатывает одно JSON-RPC сообщение. Для tools/call ошибки
// диспетчеризации отвечаются собственными кодами (-32601 неизвестный
// инструмент, -32602 аргументы), остальное обрабатывает mcp-go.
func (s *Server) HandleMessage(ctx context.Context, raw json.RawMessage) mcp.JSONRPCMessage {
	var call struct {
		ID     any    `json:"id"`
		Method string `json:"method"`
		Params struct {
			Name      string `json:"name"`
			Arguments any    `json:"arguments"`
		} `json:"params"`
	}
	if err := json.Unmarshal(raw, &call); err != nil || call.ID == nil || call.Method != string(mcp.MethodToolsCall) {
		return s.mcp.HandleMessage(ctx, raw)
	}

	args, err := argumentBag(call.Params.Arguments)
	if err == nil {
		err = s.invoker.Check(call.Params.Name, args)
	}
	var dispErr *dispatch.Error
	if errors.As(err, &dispErr) {
		s.logger.Warn("tool call rejected", "tool", call.Params.Name, "code", int(dispErr.Code), "error", dispErr.Message)
		return mcp.NewJSONRPCError(mcp.NewRequestId(call.ID), int(dispErr.Code), dispErr.Message, nil)
	}
	return s.mcp.HandleMessage(ctx, raw)
}

// ToResult переводит Envelope в результат MCP.
func ToResult(env *dispatch.Envelope) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(env.Content))
	for _, c := range env.Content {
		content = append(content, mcp.NewTextContent(c.Text))
	}
	return &mcp.CallToolResult{Content: content, IsError: env.IsError}
}

// ServeStdio обслуживает MCP по stdio до отмены ctx или закрытия in.
// Одна строка in - одно JSON-RPC сообщение, ответы пишутся в out построчно.
// Протокол идёт только через out, диагностика - в логгер.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		reader := bufio.NewReader(in)
		for {
			line, err := reader.ReadBytes('\n')
			if len(bytes.TrimSpace(line)) > 0 {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(stdioWorkers)
	w := &lineWriter{enc: json.NewEncoder(out)}
	s.logger.Info("mcp stdio server started")

	for {
		select {
		case <-gctx.Done():
			// Ошибка записи или отмена ctx: дожидаемся начатых вызовов.
			if err := g.Wait(); err != nil {
				return err
			}
			return nil
		case err := <-readErr:
			if waitErr := g.Wait(); waitErr != nil {
				return waitErr
			}
			if errors.Is(err, io.EOF) {
				s.logger.Info("mcp stdio input closed")
				return nil
			}
			return fmt.Errorf("failed to read stdio input: %w", err)
		case line := <-lines:
			msg := json.RawMessage(line)
			g.Go(func() error {
				resp := s.HandleMessage(gctx, msg)
				if resp == nil {
					return nil
				}
				if err := w.write(resp); err != nil {
					s.logger.Error("failed to write mcp response", "error", err.Error())
					return err
				}
				return nil
			})
		}
	}
}

// stdioWorkers - число одновременно обрабатываемых сообщений stdio.
const stdioWorkers = 5

// lineWriter сериализует ответы: json.Encoder пишет сообщение и перевод строки одним Write.
type lineWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func (w *lineWriter) write(msg mcp.JSONRPCMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(msg)
}
