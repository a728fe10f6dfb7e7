package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/gateway"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/apperrors"
)

func noop(context.Context, gateway.Env, gateway.Args) (any, error) { return nil, nil }

func TestNewRegistry_KeepsRegistrationOrder(t *testing.T) {
	r := NewRegistry(
		Operation{Name: "get_b", Run: noop},
		Operation{Name: "get_a", Run: noop},
		Operation{Name: "list_c", Run: noop},
	)

	var names []string
	for _, d := range r.Descriptors() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"get_b", "get_a", "list_c"}, names)
	assert.Equal(t, []string{"get_a", "get_b", "list_c"}, r.Names())
}

func TestNewRegistry_Panics(t *testing.T) {
	tests := []struct {
		name     string
		handlers []Handler
	}{
		{"nil handler", []Handler{nil}},
		{"empty name", []Handler{Operation{Run: noop}}},
		{"camelCase name", []Handler{Operation{Name: "getItem", Run: noop}}},
		{"duplicate", []Handler{Operation{Name: "get_x", Run: noop}, Operation{Name: "get_x", Run: noop}}},
		{"broken schema", []Handler{Operation{Name: "get_x", Schema: Schema{"type": 42}, Run: noop}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, func() { NewRegistry(tt.handlers...) })
		})
	}
}

func TestRegistry_DescriptorsAreCopies(t *testing.T) {
	schema := Object(map[string]Schema{
		"status": StringEnum("Status", "active", "closed"),
		"ids":    Array("IDs", Number("ID")),
	}, "status")
	r := NewRegistry(Operation{Name: "list_x", Schema: schema, Run: noop})

	d := r.Descriptors()[0]
	props := d.InputSchema["properties"].(map[string]any)
	status := props["status"].(map[string]any)
	status["enum"].([]string)[0] = "hacked"
	status["type"] = "number"
	props["ids"].(map[string]any)["items"].(map[string]any)["type"] = "string"
	delete(props, "ids")
	d.InputSchema["required"].([]string)[0] = "other"
	d.InputSchema["additionalProperties"] = false

	fresh := r.Descriptors()[0]
	assert.Equal(t, schema, fresh.InputSchema)
	freshProps := fresh.InputSchema["properties"].(map[string]any)
	assert.Equal(t, []string{"active", "closed"}, freshProps["status"].(map[string]any)["enum"])
	assert.Equal(t, "number", freshProps["ids"].(map[string]any)["items"].(map[string]any)["type"])
	assert.Equal(t, []string{"status"}, fresh.InputSchema.Required())
	assert.NotContains(t, fresh.InputSchema, "additionalProperties")

	// Проверка аргументов по-прежнему использует исходную схему.
	require.NoError(t, r.validator("list_x").Validate(gateway.Args{"status": "closed"}))
	assert.Error(t, r.validator("list_x").Validate(gateway.Args{"status": "hacked"}))
}

func TestDescriptor_DefaultSchema(t *testing.T) {
	d := Operation{Name: "list_x", Description: "List x", Run: noop}.Descriptor()
	assert.Equal(t, "object", d.InputSchema["type"])
	assert.Empty(t, d.InputSchema.Required())
}

func TestSchema_Required(t *testing.T) {
	s := Object(map[string]Schema{"a": String("A"), "b": Number("B")}, "a")
	assert.Equal(t, []string{"a"}, s.Required())
	assert.Equal(t, []string{"x"}, Schema{"required": []any{"x", 1}}.Required())
}

func TestValidator(t *testing.T) {
	schema := Object(map[string]Schema{
		"ids":       Array("IDs", Schema{"type": "number"}),
		"status":    StringEnum("Status", "active", "completed"),
		"asOf":      String("Date").With("format", "date-time"),
		"expand":    NumberEnum("Expand", 0, 1, 2),
		"variables": StringMap("Vars"),
	}, "ids")
	v, err := compileValidator("test_op", schema)
	require.NoError(t, err)

	tests := []struct {
		name  string
		args  gateway.Args
		field string
	}{
		{"valid", gateway.Args{"ids": []any{float64(1)}, "status": "active"}, ""},
		{"missing required is left to narrowing", gateway.Args{}, ""},
		{"wrong type", gateway.Args{"ids": "1"}, "ids"},
		{"wrong item type", gateway.Args{"ids": []any{"x"}}, "ids"},
		{"enum violation", gateway.Args{"status": "merged"}, "status"},
		{"bad date-time", gateway.Args{"asOf": "yesterday"}, "asOf"},
		{"number enum", gateway.Args{"expand": float64(7)}, "expand"},
		{"string map value", gateway.Args{"variables": map[string]any{"a": float64(1)}}, "variables"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.args)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.KindValidation, appErr.Kind())
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestWrap(t *testing.T) {
	t.Run("envelope passes through", func(t *testing.T) {
		env := ErrorEnvelope("boom")
		got, err := Wrap(env)
		require.NoError(t, err)
		assert.Same(t, env, got)

		got, err = Wrap(*TextEnvelope("x"))
		require.NoError(t, err)
		assert.Equal(t, "x", got.Content[0].Text)
	})

	t.Run("pretty json", func(t *testing.T) {
		got, err := Wrap(map[string]any{"id": 1})
		require.NoError(t, err)
		assert.False(t, got.IsError)
		assert.Equal(t, "{\n  \"id\": 1\n}", got.Content[0].Text)
	})

	t.Run("not serializable", func(t *testing.T) {
		_, err := Wrap(make(chan int))
		assert.Error(t, err)
	})
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, -32601, int(MethodNotFound))
	assert.Equal(t, -32602, int(InvalidParams))
	err := &Error{Code: InvalidParams, Message: "x"}
	assert.Equal(t, "InvalidParams: x", err.Error())
	assert.True(t, IsCode(err, InvalidParams))
	assert.False(t, IsCode(err, MethodNotFound))
}
