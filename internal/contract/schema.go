package contract

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// Contract — схема входных данных action.
type Contract interface {
	// Validate проверяет data и возвращает нормализованное значение.
	// При нарушениях возвращает *ValidationError.
	Validate(data any) (any, error)
}

// Kind — вид узла схемы.
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindNumber
	KindInteger
	KindBool
	KindObject
	KindMap
	KindList
)

// String возвращает имя вида, как оно пишется в сообщениях об ошибках.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindBool:
		return "boolean"
	case KindObject, KindMap:
		return "object"
	case KindList:
		return "array"
	default:
		return "any"
	}
}

// Schema — узел tagged-variant схемы.
type Schema struct {
	Kind Kind

	// Fields — поля для KindObject.
	Fields []Field

	// Elem — схема элементов для KindList и значений для KindMap.
	// nil означает Any.
	Elem *Schema

	// MinLength — минимальная длина строки (в рунах) для KindString.
	MinLength int
}

// Field — поле объекта.
type Field struct {
	Name     string
	Schema   Schema
	Optional bool
}

// Конструкторы узлов.

func Any() Schema     { return Schema{Kind: KindAny} }
func String() Schema  { return Schema{Kind: KindString} }
func Number() Schema  { return Schema{Kind: KindNumber} }
func Integer() Schema { return Schema{Kind: KindInteger} }
func Bool() Schema    { return Schema{Kind: KindBool} }

// ObjectOf создаёт вложенный объект с фиксированным набором полей.
func ObjectOf(fields ...Field) Schema {
	return Schema{Kind: KindObject, Fields: fields}
}

// MapOf создаёт объект с произвольными ключами и значениями вида elem.
func MapOf(elem Schema) Schema {
	return Schema{Kind: KindMap, Elem: &elem}
}

// ListOf создаёт список элементов вида elem.
func ListOf(elem Schema) Schema {
	return Schema{Kind: KindList, Elem: &elem}
}

// MinLen возвращает копию строковой схемы с ограничением длины.
func (s Schema) MinLen(n int) Schema {
	s.MinLength = n
	return s
}

// Required объявляет обязательное поле.
func Required(name string, s Schema) Field {
	return Field{Name: name, Schema: s}
}

// Optional объявляет необязательное поле.
func Optional(name string, s Schema) Field {
	return Field{Name: name, Schema: s, Optional: true}
}

// ObjectContract — Contract верхнего уровня на основе Schema.
type ObjectContract struct {
	root Schema
}

// Object создаёт контракт объекта с указанными полями.
func Object(fields ...Field) *ObjectContract {
	return &ObjectContract{root: ObjectOf(fields...)}
}

// Fields возвращает поля верхнего уровня.
func (c *ObjectContract) Fields() []Field {
	return c.root.Fields
}

// IsEmpty возвращает true, если контракт не объявляет ни одного поля.
func (c *ObjectContract) IsEmpty() bool {
	return len(c.root.Fields) == 0
}

// Validate проверяет data рекурсивно.
// Возвращает map только с объявленными полями.
func (c *ObjectContract) Validate(data any) (any, error) {
	if data == nil {
		data = map[string]any{}
	}

	var is issues
	out := validate("", data, c.root, &is)
	if err := is.err(); err != nil {
		return nil, err
	}
	return out, nil
}

// String описывает контракт: "a, b?, c{...}".
func (c *ObjectContract) String() string {
	names := make([]string, 0, len(c.root.Fields))
	for _, f := range c.root.Fields {
		name := f.Name + ":" + f.Schema.Kind.String()
		if f.Optional {
			name += "?"
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

// validate — рекурсивный обход схемы.
func validate(path string, value any, s Schema, is *issues) any {
	switch s.Kind {
	case KindAny:
		return value

	case KindString:
		str, ok := value.(string)
		if !ok {
			is.add(path, mismatch(s.Kind, value))
			return nil
		}
		if s.MinLength > 0 && utf8.RuneCountInString(str) < s.MinLength {
			is.add(path, fmt.Sprintf("must be at least %d characters", s.MinLength))
			return nil
		}
		return str

	case KindNumber:
		n, ok := toFloat(value)
		if !ok {
			is.add(path, mismatch(s.Kind, value))
			return nil
		}
		return n

	case KindInteger:
		switch n := value.(type) {
		case int:
			return int64(n)
		case int32:
			return int64(n)
		case int64:
			return n
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return i
			}
		}
		n, ok := toFloat(value)
		if !ok || n != math.Trunc(n) {
			is.add(path, mismatch(s.Kind, value))
			return nil
		}
		// float64(math.MaxInt64) == 2^63, уже за пределами int64.
		if n < math.MinInt64 || n >= math.MaxInt64 {
			is.add(path, fmt.Sprintf("integer %g out of range", n))
			return nil
		}
		return int64(n)

	case KindBool:
		b, ok := value.(bool)
		if !ok {
			is.add(path, mismatch(s.Kind, value))
			return nil
		}
		return b

	case KindObject:
		obj, ok := value.(map[string]any)
		if !ok {
			is.add(path, mismatch(s.Kind, value))
			return nil
		}
		out := make(map[string]any, len(s.Fields))
		for _, f := range s.Fields {
			fieldPath := joinPath(path, f.Name)
			v, present := obj[f.Name]
			if !present || (v == nil && f.Optional) {
				if !f.Optional {
					is.add(fieldPath, "missing required field")
				}
				continue
			}
			out[f.Name] = validate(fieldPath, v, f.Schema, is)
		}
		return out

	case KindMap:
		obj, ok := value.(map[string]any)
		if !ok {
			is.add(path, mismatch(s.Kind, value))
			return nil
		}
		if s.Elem == nil {
			return obj
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := make(map[string]any, len(obj))
		for _, k := range keys {
			out[k] = validate(joinPath(path, k), obj[k], *s.Elem, is)
		}
		return out

	case KindList:
		list, ok := value.([]any)
		if !ok {
			is.add(path, mismatch(s.Kind, value))
			return nil
		}
		if s.Elem == nil {
			return list
		}
		out := make([]any, len(list))
		for i, v := range list {
			out[i] = validate(fmt.Sprintf("%s[%d]", path, i), v, *s.Elem, is)
		}
		return out
	}

	return value
}

func mismatch(want Kind, got any) string {
	return fmt.Sprintf("expected %s, got %s", want, typeName(got))
}

// typeName возвращает JSON-имя типа значения.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float32, float64, int, int32, int64, json.Number:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
