package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/gateway"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/apperrors"
)

// Schema - JSON Schema аргументов операции в виде JSON-совместимой map.
type Schema map[string]any

// Object описывает объект с полями props; required перечисляет обязательные поля.
func Object(props map[string]Schema, required ...string) Schema {
	properties := make(map[string]any, len(props))
	for k, v := range props {
		properties[k] = map[string]any(v)
	}
	s := Schema{"type": "object", "properties": properties}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// Clone возвращает глубокую копию схемы: вложенные map и срезы не разделяются.
func (s Schema) Clone() Schema {
	if s == nil {
		return nil
	}
	return Schema(cloneMap(s))
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Schema:
		return t.Clone()
	case map[string]any:
		return cloneMap(t)
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return slices.Clone(t)
	case []int:
		return slices.Clone(t)
	default:
		return v
	}
}

// String описывает строковое поле.
func String(description string) Schema {
	return Schema{"type": "string", "description": description}
}

// StringEnum описывает строковое поле с фиксированным набором значений.
func StringEnum(description string, values ...string) Schema {
	return Schema{"type": "string", "description": description, "enum": values}
}

// Number описывает числовое поле.
func Number(description string) Schema {
	return Schema{"type": "number", "description": description}
}

// NumberEnum описывает числовое поле с фиксированным набором значений.
func NumberEnum(description string, values ...int) Schema {
	return Schema{"type": "number", "description": description, "enum": values}
}

// Boolean описывает логическое поле.
func Boolean(description string) Schema {
	return Schema{"type": "boolean", "description": description}
}

// Array описывает массив с элементами items.
func Array(description string, items Schema) Schema {
	return Schema{"type": "array", "description": description, "items": map[string]any(items)}
}

// StringMap описывает объект со строковыми значениями.
func StringMap(description string) Schema {
	return Schema{
		"type":                 "object",
		"description":          description,
		"additionalProperties": map[string]any{"type": "string"},
	}
}

// Any описывает поле произвольного типа.
func Any(description string) Schema {
	return Schema{"description": description}
}

// With возвращает копию схемы с дополнительным ключом.
func (s Schema) With(key string, value any) Schema {
	out := maps.Clone(s)
	out[key] = value
	return out
}

// Required возвращает имена обязательных полей верхнего уровня.
func (s Schema) Required() []string {
	switch v := s["required"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if name, ok := item.(string); ok {
				out = append(out, name)
			}
		}
		return out
	default:
		return nil
	}
}

// validator проверяет Argument Bag по схеме операции.
type validator struct {
	schema *jsonschema.Schema
}

// compileValidator компилирует схему без верхнеуровневого required:
// отсутствие обязательных полей сообщает сужение аргументов в шлюзе.
func compileValidator(name string, s Schema) (*validator, error) {
	stripped := maps.Clone(s)
	delete(stripped, "required")

	doc, err := toJSONValue(stripped)
	if err != nil {
		return nil, fmt.Errorf("schema of %s: %w", name, err)
	}

	url := "mem://operations/" + name + ".json"
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("schema of %s: %w", name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("schema of %s: %w", name, err)
	}
	return &validator{schema: compiled}, nil
}

var printer = message.NewPrinter(language.English)

// Validate возвращает ValidationError с именем первого неверного поля.
func (v *validator) Validate(args gateway.Args) error {
	doc, err := toJSONValue(map[string]any(args))
	if err != nil {
		return apperrors.NewValidationError("", "arguments are not valid JSON: "+err.Error())
	}
	err = v.schema.Validate(doc)
	if err == nil {
		return nil
	}

	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return apperrors.NewValidationError("", err.Error())
	}
	leaf := firstLeaf(verr)
	field := ""
	if len(leaf.InstanceLocation) > 0 {
		field = leaf.InstanceLocation[0]
	}
	msg := leaf.ErrorKind.LocalizedString(printer)
	if loc := strings.Join(leaf.InstanceLocation, "/"); loc != "" {
		msg = loc + ": " + msg
	}
	return apperrors.NewValidationError(field, msg)
}

func firstLeaf(e *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(e.Causes) > 0 {
		e = e.Causes[0]
	}
	return e
}

// toJSONValue приводит значение к виду, который ожидает jsonschema (json.Number и т.д.).
func toJSONValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}
