package catalog

import (
	"context"
	"fmt"

	"github.com/shaiso/Conveyor/internal/actions"
	"github.com/shaiso/Conveyor/internal/contract"
	"github.com/shaiso/Conveyor/internal/domain"
)

var addNumbersSchema = contract.MustJSONSchema("add_numbers", `{
	"type": "object",
	"required": ["a", "b"],
	"properties": {
		"a": {"type": "number"},
		"b": {"type": "number"}
	}
}`)

// GreetPayload — payload action greet.
type GreetPayload struct {
	Name     string `json:"name" validate:"required,min=1"`
	Language string `json:"language" validate:"omitempty,oneof=en es fr de ru"`
}

var greetings = map[string]string{
	"en": "Hello",
	"es": "Hola",
	"fr": "Bonjour",
	"de": "Hallo",
	"ru": "Привет",
}

func registerBasic(reg *actions.Registry) {
	reg.Register(actions.Descriptor{
		Name:        "echo",
		Description: "Echo back the input message",
		Payload:     contract.Object(contract.Required("message", contract.String().MinLen(1))),
		Params:      []actions.Param{actions.ParamPayload},
	}, echo)

	reg.Register(actions.Descriptor{
		Name:        "add_numbers",
		Description: "Add two numbers together",
		Payload:     addNumbersSchema,
		Params:      []actions.Param{actions.ParamPayload},
	}, addNumbers)

	reg.Register(actions.Descriptor{
		Name:        "greet",
		Description: "Generate a greeting message",
		Payload:     contract.Struct[GreetPayload](),
		Params:      []actions.Param{actions.ParamPayload, actions.ParamLocalTime},
	}, greet)

	reg.Register(actions.Descriptor{
		Name:        "create_profile",
		Description: "Create a user profile with nested settings",
		Payload: contract.Object(
			contract.Required("username", contract.String().MinLen(1)),
			contract.Required("profile", contract.MapOf(contract.Any())),
			contract.Optional("tags", contract.ListOf(contract.String())),
		),
		Account: contract.Object(
			contract.Required("api_key", contract.String().MinLen(32)),
			contract.Required("permissions", contract.MapOf(contract.Any())),
		),
		Params: []actions.Param{actions.ParamPayload, actions.ParamAccount},
	}, createProfile)
}

func echo(_ context.Context, p actions.Params) (*domain.Response, error) {
	in := p.Payload.(map[string]any)
	return domain.Success("", map[string]any{"echo": in["message"]}), nil
}

func addNumbers(_ context.Context, p actions.Params) (*domain.Response, error) {
	in := p.Payload.(map[string]any)
	a, _ := in["a"].(float64)
	b, _ := in["b"].(float64)
	return domain.Success("", map[string]any{"sum": a + b}), nil
}

func greet(_ context.Context, p actions.Params) (*domain.Response, error) {
	in := p.Payload.(*GreetPayload)

	greeting, ok := greetings[in.Language]
	if !ok {
		greeting = greetings["en"]
	}

	return domain.Success("", map[string]any{
		"message":    fmt.Sprintf("%s, %s!", greeting, in.Name),
		"greeted_at": p.LocalTime,
	}), nil
}

func createProfile(_ context.Context, p actions.Params) (*domain.Response, error) {
	in := p.Payload.(map[string]any)
	account := p.Account.(map[string]any)

	tags, ok := in["tags"]
	if !ok {
		tags = []any{}
	}

	return domain.Success("", map[string]any{
		"username":    in["username"],
		"profile":     in["profile"],
		"tags":        tags,
		"permissions": account["permissions"],
	}), nil
}
