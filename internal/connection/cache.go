// Package connection хранит общее подключение к Azure DevOps.
//
// Cache привязан к одной конфигурации (config.Target). Повторный Initialize
// отбрасывает подключение и все производные sub-API и увеличивает поколение.
// Подключение строится лениво при первом обращении, не более одного
// построения одновременно.
package connection

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/adapter/azuredevops"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/config"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/gateway"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/apperrors"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/logging"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/urlutil"
)

// Сообщения ConfigurationError кэша.
const (
	// ErrNotInitialized - обращение до Initialize.
	ErrNotInitialized = "connection is not initialized"
	// ErrConfigurationChanged - Initialize произошёл во время вызова, привязанного к прежней конфигурации.
	ErrConfigurationChanged = "connection configuration changed during the call"
)

// errStaleGeneration - поколение сменилось, результат относится к старой конфигурации.
var errStaleGeneration = errors.New("stale connection generation")

// Factory строит клиент для конфигурации.
type Factory func(target config.Target) (*azuredevops.Client, error)

// Cache - кэш подключения и sub-API. Безопасен для конкурентного использования.
type Cache struct {
	factory Factory
	logger  logging.Logger

	mu          sync.Mutex
	initialized bool
	target      config.Target
	generation  uint64
	client      *azuredevops.Client
	subAPIs     map[azuredevops.Kind]any

	group singleflight.Group
}

// NewCache создаёт пустой кэш. Nil factory заменяется на ClientFactory с настройками по умолчанию.
func NewCache(factory Factory, logger logging.Logger) *Cache {
	if factory == nil {
		factory = ClientFactory(config.AzureDevOpsConfig{}, nil, logger)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Cache{
		factory: factory,
		logger:  logger,
		subAPIs: make(map[azuredevops.Kind]any),
	}
}

// ClientFactory возвращает Factory, строящую azuredevops.Client с транспортными
// настройками из cfg. httpOpts может быть nil.
func ClientFactory(cfg config.AzureDevOpsConfig, httpOpts *azuredevops.Options, logger logging.Logger) Factory {
	return func(target config.Target) (*azuredevops.Client, error) {
		if target.IsZero() {
			return nil, apperrors.NewConfigurationError(ErrNotInitialized, nil)
		}
		opts := azuredevops.Options{}
		if httpOpts != nil {
			opts = *httpOpts
		}
		opts.OrganizationURL = target.OrganizationURL()
		opts.PAT = target.PAT()
		if opts.APIVersion == "" {
			opts.APIVersion = cfg.APIVersion
		}
		if opts.Timeout == 0 {
			opts.Timeout = cfg.Timeout
		}
		if opts.RateLimit == 0 {
			opts.RateLimit = cfg.RateLimit
			opts.RateBurst = cfg.RateBurst
		}
		if opts.Logger == nil {
			opts.Logger = logger
		}
		return azuredevops.NewClient(opts), nil
	}
}

// Initialize привязывает кэш к новой конфигурации. Ранее построенные
// подключение и sub-API отбрасываются всегда, даже для той же конфигурации.
func (c *Cache) Initialize(target config.Target) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.target = target
	c.initialized = true
	c.generation++
	c.client = nil
	c.subAPIs = make(map[azuredevops.Kind]any)

	c.logger.Info("connection initialized",
		"organization_url", urlutil.MaskURL(target.OrganizationURL()),
		"project", target.Project(),
		"generation", c.generation,
	)
}

// Target возвращает текущую конфигурацию.
func (c *Cache) Target() (config.Target, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target, c.initialized
}

// Generation возвращает номер текущего поколения.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Pin возвращает текущую конфигурацию и Backend, привязанный к её поколению.
// Target и Backend читаются под одним захватом mutex, поэтому вызов не может
// получить проект одной конфигурации и подключение другой.
func (c *Cache) Pin() (config.Target, gateway.Backend, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target, &View{cache: c, generation: c.generation}, c.initialized
}

// Connection возвращает подключение текущего поколения, строя его при необходимости.
// Если Initialize произошёл во время построения, используется новое поколение.
func (c *Cache) Connection(ctx context.Context) (*azuredevops.Client, error) {
	for {
		client, err := c.connectionAt(ctx, c.Generation())
		if errors.Is(err, errStaleGeneration) {
			continue
		}
		return client, err
	}
}

// SubAPI возвращает sub-API заданного вида текущего поколения, один на поколение.
func (c *Cache) SubAPI(ctx context.Context, kind azuredevops.Kind) (any, error) {
	for {
		api, err := c.subAPIAt(ctx, c.Generation(), kind)
		if errors.Is(err, errStaleGeneration) {
			continue
		}
		return api, err
	}
}

// connectionAt возвращает подключение поколения gen.
// errStaleGeneration: поколение сменилось до или во время построения.
func (c *Cache) connectionAt(ctx context.Context, gen uint64) (*azuredevops.Client, error) {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return nil, apperrors.NewConfigurationError(ErrNotInitialized, nil)
	}
	if c.generation != gen {
		c.mu.Unlock()
		return nil, errStaleGeneration
	}
	if c.client != nil {
		client := c.client
		c.mu.Unlock()
		return client, nil
	}
	target := c.target
	c.mu.Unlock()

	ch := c.group.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		return c.build(gen, target)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		client, ok := res.Val.(*azuredevops.Client)
		if !ok || client == nil {
			return nil, fmt.Errorf("connection build returned %T", res.Val)
		}
		if c.Generation() != gen {
			return nil, errStaleGeneration
		}
		return client, nil
	}
}

// build строит клиент и сохраняет его, только если поколение не изменилось.
func (c *Cache) build(gen uint64, target config.Target) (*azuredevops.Client, error) {
	client, err := c.factory(target)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		c.logger.Debug("discarding stale connection", "generation", gen, "current", c.generation)
		return client, nil
	}
	if c.client == nil {
		c.client = client
		c.logger.Debug("connection built", "generation", gen, "session_id", client.SessionID())
	}
	return c.client, nil
}

// subAPIAt возвращает sub-API вида kind поколения gen.
func (c *Cache) subAPIAt(ctx context.Context, gen uint64, kind azuredevops.Kind) (any, error) {
	client, err := c.connectionAt(ctx, gen)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen || c.client != client {
		return nil, errStaleGeneration
	}
	if api, ok := c.subAPIs[kind]; ok {
		return api, nil
	}
	api, err := client.SubAPI(kind)
	if err != nil {
		return nil, err
	}
	c.subAPIs[kind] = api
	return api, nil
}

// WorkItems возвращает sub-API work item tracking.
func (c *Cache) WorkItems(ctx context.Context) (azuredevops.WorkItemTracking, error) {
	return subAPI[azuredevops.WorkItemTracking](ctx, c, azuredevops.KindWorkItemTracking)
}

// Work возвращает sub-API досок.
func (c *Cache) Work(ctx context.Context) (azuredevops.Work, error) {
	return subAPI[azuredevops.Work](ctx, c, azuredevops.KindWork)
}

// Wiki возвращает sub-API вики.
func (c *Cache) Wiki(ctx context.Context) (azuredevops.Wiki, error) {
	return subAPI[azuredevops.Wiki](ctx, c, azuredevops.KindWiki)
}

// Core возвращает sub-API проектов.
func (c *Cache) Core(ctx context.Context) (azuredevops.Core, error) {
	return subAPI[azuredevops.Core](ctx, c, azuredevops.KindCore)
}

// Build возвращает sub-API сборок.
func (c *Cache) Build(ctx context.Context) (azuredevops.Build, error) {
	return subAPI[azuredevops.Build](ctx, c, azuredevops.KindBuild)
}

// Git возвращает sub-API pull requests.
func (c *Cache) Git(ctx context.Context) (azuredevops.Git, error) {
	return subAPI[azuredevops.Git](ctx, c, azuredevops.KindGit)
}

func subAPI[T any](ctx context.Context, c *Cache, kind azuredevops.Kind) (T, error) {
	api, err := c.SubAPI(ctx, kind)
	return typed[T](kind, api, err)
}

// typed приводит sub-API к интерфейсу T.
func typed[T any](kind azuredevops.Kind, api any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	t, ok := api.(T)
	if !ok {
		return zero, fmt.Errorf("sub-API %s has unexpected type %T", kind, api)
	}
	return t, nil
}
