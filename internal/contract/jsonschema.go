package contract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// JSONSchemaContract — контракт на основе JSON Schema (Draft 2020-12).
type JSONSchemaContract struct {
	name   string
	schema *jsonschema.Schema
}

// JSONSchema компилирует документ схемы.
// name используется для построения URL ресурса и в описании контракта.
func JSONSchema(name, doc string) (*JSONSchemaContract, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020

	url := fmt.Sprintf("https://conveyor.schemas.local/contracts/%s.schema.json", name)
	if err := c.AddResource(url, strings.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", ErrInvalidContract, name, err)
	}

	schema, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("%w: compile %s: %v", ErrInvalidContract, name, err)
	}

	return &JSONSchemaContract{name: name, schema: schema}, nil
}

// MustJSONSchema — как JSONSchema, но паникует при ошибке.
// Для схем, объявленных в коде при старте.
func MustJSONSchema(name, doc string) *JSONSchemaContract {
	c, err := JSONSchema(name, doc)
	if err != nil {
		panic(err)
	}
	return c
}

// Validate проверяет data по схеме. Значение возвращается без изменений.
func (c *JSONSchemaContract) Validate(data any) (any, error) {
	if data == nil {
		data = map[string]any{}
	}

	err := c.schema.Validate(data)
	if err == nil {
		return data, nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, &ValidationError{Issues: []Issue{{Message: err.Error()}}}
	}

	var is issues
	collectLeaves(verr, &is)
	return nil, is.err()
}

// String описывает контракт.
func (c *JSONSchemaContract) String() string {
	return "json-schema:" + c.name
}

// collectLeaves собирает листовые причины ошибки: они указывают на конкретное поле.
func collectLeaves(verr *jsonschema.ValidationError, is *issues) {
	if len(verr.Causes) == 0 {
		is.add(pointerToPath(verr.InstanceLocation), verr.Message)
		return
	}
	for _, cause := range verr.Causes {
		collectLeaves(cause, is)
	}
}

// pointerToPath переводит JSON Pointer (/profile/tags/0) в путь profile.tags[0].
func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	var b strings.Builder
	for i, seg := range strings.Split(ptr, "/") {
		seg = strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
		if isIndex(seg) {
			b.WriteString("[" + seg + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
