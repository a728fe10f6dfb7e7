package gateway

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/apperrors"
)

// Args - Argument Bag одного вызова. Значения имеют форму, которую даёт
// encoding/json: float64, string, bool, []any, map[string]any.
type Args map[string]any

// Has сообщает, передано ли поле (null считается отсутствием).
func (a Args) Has(field string) bool {
	v, ok := a[field]
	return ok && v != nil
}

func required(field string) error {
	return apperrors.NewValidationError(field, fmt.Sprintf("%s is required", field))
}

func invalid(field, format string, args ...any) error {
	return apperrors.NewValidationError(field, fmt.Sprintf("%s %s", field, fmt.Sprintf(format, args...)))
}

// String возвращает строковое поле и признак его наличия.
func (a Args) String(field string) (string, bool, error) {
	if !a.Has(field) {
		return "", false, nil
	}
	s, ok := a[field].(string)
	if !ok {
		return "", false, invalid(field, "must be a string")
	}
	return s, true, nil
}

// RequiredString возвращает непустое (после trim) строковое поле.
func (a Args) RequiredString(field string) (string, error) {
	s, ok, err := a.String(field)
	if err != nil {
		return "", err
	}
	if !ok || strings.TrimSpace(s) == "" {
		return "", required(field)
	}
	return s, nil
}

// OptionalString возвращает строковое поле; пустая строка равна отсутствию.
func (a Args) OptionalString(field string) (string, error) {
	s, _, err := a.String(field)
	return s, err
}

// Int возвращает целочисленное поле и признак его наличия.
func (a Args) Int(field string) (int, bool, error) {
	if !a.Has(field) {
		return 0, false, nil
	}
	n, err := toInt(a[field])
	if err != nil {
		return 0, false, invalid(field, "must be an integer")
	}
	return n, true, nil
}

// RequiredInt возвращает обязательное целочисленное поле.
func (a Args) RequiredInt(field string) (int, error) {
	n, ok, err := a.Int(field)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, required(field)
	}
	return n, nil
}

// Bool возвращает логическое поле или def, если оно не передано.
func (a Args) Bool(field string, def bool) (bool, error) {
	if !a.Has(field) {
		return def, nil
	}
	b, ok := a[field].(bool)
	if !ok {
		return false, invalid(field, "must be a boolean")
	}
	return b, nil
}

// RequiredIntSlice возвращает непустой массив целых.
func (a Args) RequiredIntSlice(field string) ([]int, error) {
	if !a.Has(field) {
		return nil, required(field)
	}
	items, ok := a[field].([]any)
	if !ok {
		return nil, invalid(field, "must be an array of integers")
	}
	if len(items) == 0 {
		return nil, invalid(field, "must not be empty")
	}
	out := make([]int, 0, len(items))
	for i, item := range items {
		n, err := toInt(item)
		if err != nil {
			return nil, invalid(field, "item %d must be an integer", i)
		}
		out = append(out, n)
	}
	return out, nil
}

// StringSlice возвращает массив строк и признак его наличия.
func (a Args) StringSlice(field string) ([]string, bool, error) {
	if !a.Has(field) {
		return nil, false, nil
	}
	items, ok := a[field].([]any)
	if !ok {
		return nil, false, invalid(field, "must be an array of strings")
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false, invalid(field, "item %d must be a string", i)
		}
		out = append(out, s)
	}
	return out, true, nil
}

// StringMap возвращает объект со строковыми значениями и признак его наличия.
func (a Args) StringMap(field string) (map[string]string, bool, error) {
	if !a.Has(field) {
		return nil, false, nil
	}
	obj, ok := a[field].(map[string]any)
	if !ok {
		return nil, false, invalid(field, "must be an object")
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		s, ok := v.(string)
		if !ok {
			return nil, false, invalid(field, "value of %q must be a string", k)
		}
		out[k] = s
	}
	return out, true, nil
}

// Enum возвращает строковое поле из допустимого набора и признак его наличия.
func (a Args) Enum(field string, allowed ...string) (string, bool, error) {
	s, ok, err := a.String(field)
	if err != nil || !ok {
		return "", false, err
	}
	if !slices.Contains(allowed, s) {
		return "", false, invalid(field, "must be one of %s", strings.Join(allowed, ", "))
	}
	return s, true, nil
}

// IntEnum возвращает целочисленное поле из допустимого набора и признак его наличия.
func (a Args) IntEnum(field string, allowed ...int) (int, bool, error) {
	n, ok, err := a.Int(field)
	if err != nil || !ok {
		return 0, false, err
	}
	if !slices.Contains(allowed, n) {
		return 0, false, invalid(field, "must be one of %v", allowed)
	}
	return n, true, nil
}

// Raw возвращает значение поля как есть.
func (a Args) Raw(field string) (any, bool) {
	if !a.Has(field) {
		return nil, false
	}
	return a[field], true
}

// Decode перекодирует поле в out через JSON.
func (a Args) Decode(field string, out any) (bool, error) {
	v, ok := a.Raw(field)
	if !ok {
		return false, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return false, invalid(field, "is not serializable: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, invalid(field, "has invalid shape: %v", err)
	}
	return true, nil
}

// toInt принимает только целые значения без дробной части.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, fmt.Errorf("not an integer: %v", n)
		}
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, err
		}
		return int(i), nil
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}
