package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/shaiso/Conveyor/internal/actions"
	"github.com/shaiso/Conveyor/internal/contract"
	"github.com/shaiso/Conveyor/internal/domain"
)

// errTemplate — шаблон не разбирается или не выполняется.
var errTemplate = errors.New("template error")

// renderContext — данные, доступные в шаблоне.
//
//	{{ .Data.name }}
//	{{ .Provider }} {{ .Timezone }}
//	{{ .LocalTime.Format "2006-01-02" }}
type renderContext struct {
	Data      map[string]any
	Provider  string
	LocalTime time.Time
	Timezone  string
}

var templateFuncs = template.FuncMap{
	"json": func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("error: %v", err)
		}
		return string(b)
	},
	"default": func(def, val any) any {
		if val == nil {
			return def
		}
		if s, ok := val.(string); ok && s == "" {
			return def
		}
		return val
	},
	"join": func(sep string, items []any) string {
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = fmt.Sprint(it)
		}
		return strings.Join(parts, sep)
	},
	"lower":    strings.ToLower,
	"upper":    strings.ToUpper,
	"trim":     strings.TrimSpace,
	"replace":  strings.ReplaceAll,
	"contains": strings.Contains,
}

func registerTemplate(reg *actions.Registry) {
	reg.Register(actions.Descriptor{
		Name:        "template.render",
		Description: "Render text templates against payload data",
		Payload: contract.Object(
			contract.Required("template", contract.Any()),
			contract.Optional("data", contract.MapOf(contract.Any())),
		),
		Params: []actions.Param{
			actions.ParamPayload,
			actions.ParamProvider,
			actions.ParamLocalTime,
			actions.ParamTimezone,
		},
	}, renderTemplate)
}

// renderTemplate рендерит строку или все строки вложенного объекта.
// Ошибка шаблона — error-ответ, а не сбой action.
func renderTemplate(_ context.Context, p actions.Params) (*domain.Response, error) {
	in := p.Payload.(map[string]any)

	data, _ := in["data"].(map[string]any)
	if data == nil {
		data = map[string]any{}
	}
	rc := &renderContext{
		Data:      data,
		Provider:  p.Provider,
		LocalTime: p.LocalTime,
		Timezone:  p.Timezone,
	}

	out, err := renderValue(in["template"], rc)
	if err != nil {
		return domain.Error(err.Error(), nil), nil
	}
	return domain.Success("", map[string]any{"rendered": out}), nil
}

func render(tmpl string, rc *renderContext) (string, error) {
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}

	t, err := template.New("").Funcs(templateFuncs).Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("%w: parse: %v", errTemplate, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, rc); err != nil {
		return "", fmt.Errorf("%w: execute: %v", errTemplate, err)
	}
	return buf.String(), nil
}

// renderValue обходит map и slice, рендеря строки. Остальное возвращается как есть.
func renderValue(value any, rc *renderContext) (any, error) {
	switch v := value.(type) {
	case string:
		return render(v, rc)

	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			r, err := renderValue(val, rc)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out[key] = r
		}
		return out, nil

	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			r, err := renderValue(val, rc)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = r
		}
		return out, nil

	default:
		return value, nil
	}
}
