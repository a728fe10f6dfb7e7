// Package dispatch - единая точка входа: каталог операций, проверка
// Argument Bag по схеме, вызов шлюза и приведение результата к Envelope.
package dispatch

import (
	"context"
	"regexp"
	"sort"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/gateway"
)

// operationNamePattern - snake_case, начинается с буквы.
var operationNamePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(_[a-z0-9]+)*$`)

// Descriptor - статическое описание операции, публикуемое вызывающим.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"inputSchema"`
}

// Handler - операция шлюза.
type Handler interface {
	// Descriptor возвращает описание операции.
	Descriptor() Descriptor
	// MissingArgsMessage - сообщение InvalidParams для вызова без аргументов.
	// Пустая строка: вызов без аргументов допустим.
	MissingArgsMessage() string
	// Execute выполняет операцию. Ошибка уже нормализована шлюзом.
	Execute(ctx context.Context, env gateway.Env, args gateway.Args) (any, error)
}

// Func - сигнатура тела операции.
type Func func(ctx context.Context, env gateway.Env, args gateway.Args) (any, error)

// Operation - реализация Handler на функции.
type Operation struct {
	Name        string
	Description string
	Schema      Schema
	// MissingArgs - см. Handler.MissingArgsMessage.
	MissingArgs string
	Run         Func
}

var _ Handler = Operation{}

// Descriptor реализует Handler.
func (o Operation) Descriptor() Descriptor {
	schema := o.Schema
	if schema == nil {
		schema = Object(nil)
	}
	return Descriptor{Name: o.Name, Description: o.Description, InputSchema: schema}
}

// MissingArgsMessage реализует Handler.
func (o Operation) MissingArgsMessage() string { return o.MissingArgs }

// Execute реализует Handler.
func (o Operation) Execute(ctx context.Context, env gateway.Env, args gateway.Args) (any, error) {
	return o.Run(ctx, env, args)
}

// Registry - неизменяемый после построения каталог операций.
// Порядок каталога совпадает с порядком регистрации.
type Registry struct {
	handlers   []Handler
	index      map[string]int
	validators map[string]*validator
}

// NewRegistry строит каталог. Паникует при nil-обработчике, пустом или
// неверном имени, дубликате и некомпилируемой схеме (ошибки программиста).
func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{
		index:      make(map[string]int, len(handlers)),
		validators: make(map[string]*validator, len(handlers)),
	}
	for _, h := range handlers {
		r.register(h)
	}
	return r
}

func (r *Registry) register(h Handler) {
	if h == nil {
		panic("dispatch: nil handler")
	}
	d := h.Descriptor()
	if d.Name == "" {
		panic("dispatch: empty operation name")
	}
	if !operationNamePattern.MatchString(d.Name) {
		panic("dispatch: invalid operation name format (must be snake_case): " + d.Name)
	}
	if _, exists := r.index[d.Name]; exists {
		panic("dispatch: duplicate operation registration for " + d.Name)
	}
	v, err := compileValidator(d.Name, d.InputSchema)
	if err != nil {
		panic("dispatch: " + err.Error())
	}

	r.index[d.Name] = len(r.handlers)
	r.handlers = append(r.handlers, h)
	r.validators[d.Name] = v
}

// Get возвращает обработчик по имени.
func (r *Registry) Get(name string) (Handler, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.handlers[i], true
}

// Descriptors возвращает каталог в порядке регистрации.
// Схемы копируются: изменения у вызывающего не затрагивают каталог.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.handlers))
	for _, h := range r.handlers {
		d := h.Descriptor()
		d.InputSchema = d.InputSchema.Clone()
		out = append(out, d)
	}
	return out
}

// Names возвращает отсортированные имена операций.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.index))
	for name := range r.index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) validator(name string) *validator {
	return r.validators[name]
}
