package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate10   *validator.Validate
)

// structValidator возвращает общий экземпляр validator.
// Поля в путях называются по json-тегам.
func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		validate10 = v
	})
	return validate10
}

// StructContract — контракт на основе Go-структуры с тегами validate.
type StructContract[T any] struct{}

// Struct создаёт контракт для типа T.
//
//	type CreateUser struct {
//	    Name  string `json:"name" validate:"required,min=1"`
//	    Email string `json:"email" validate:"required,email"`
//	}
//	payload := contract.Struct[CreateUser]()
func Struct[T any]() *StructContract[T] {
	return &StructContract[T]{}
}

// Validate декодирует data в *T и проверяет теги validate.
func (c *StructContract[T]) Validate(data any) (any, error) {
	if data == nil {
		data = map[string]any{}
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, &ValidationError{Issues: []Issue{{Message: fmt.Sprintf("encode: %v", err)}}}
	}

	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, decodeIssue(err)
	}

	if err := structValidator().Struct(out); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, &ValidationError{Issues: []Issue{{Message: err.Error()}}}
		}

		var is issues
		for _, fe := range fieldErrs {
			is.add(fieldPath(fe.Namespace()), describeTag(fe))
		}
		return nil, is.err()
	}

	return out, nil
}

// String описывает контракт.
func (c *StructContract[T]) String() string {
	var zero T
	return fmt.Sprintf("struct:%T", zero)
}

// fieldPath убирает имя корневой структуры: CreateUser.profile.name → profile.name.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "missing required field"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of [" + fe.Param() + "]"
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
		}
		return "failed " + fe.Tag()
	}
}

// decodeIssue превращает ошибку json.Unmarshal в Issue с путём.
func decodeIssue(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &ValidationError{Issues: []Issue{{
			Path:    typeErr.Field,
			Message: fmt.Sprintf("expected %s, got %s", jsonKind(typeErr.Type), typeErr.Value),
		}}}
	}
	return &ValidationError{Issues: []Issue{{Message: err.Error()}}}
}

func jsonKind(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return t.String()
	}
}
