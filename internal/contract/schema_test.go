package contract

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func preferencesContract() *ObjectContract {
	return Object(
		Required("user_id", String()),
		Required("profile", ObjectOf(
			Required("name", String().MinLen(2)),
			Required("notifications", ObjectOf(
				Required("email", Bool()),
				Optional("sms", Bool()),
			)),
			Optional("tags", ListOf(String())),
		)),
	)
}

func TestObject_ValidPayload(t *testing.T) {
	c := preferencesContract()

	out, err := c.Validate(map[string]any{
		"user_id": "u-1",
		"profile": map[string]any{
			"name":          "Ann",
			"notifications": map[string]any{"email": true},
			"tags":          []any{"a", "b"},
		},
		"extra": "dropped",
	})
	require.NoError(t, err)

	m := out.(map[string]any)
	assert.Equal(t, "u-1", m["user_id"])
	assert.NotContains(t, m, "extra", "необъявленные поля не попадают в результат")

	profile := m["profile"].(map[string]any)
	assert.Equal(t, []any{"a", "b"}, profile["tags"])
	assert.Equal(t, map[string]any{"email": true}, profile["notifications"])
}

func TestObject_MissingNestedField(t *testing.T) {
	c := preferencesContract()

	_, err := c.Validate(map[string]any{
		"user_id": "u-1",
		"profile": map[string]any{"name": "Ann"},
	})
	verr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"profile.notifications"}, verr.Paths())
	assert.Equal(t, "missing required field", verr.Issues[0].Message)
}

func TestObject_WrongNestedType(t *testing.T) {
	c := preferencesContract()

	_, err := c.Validate(map[string]any{
		"user_id": "u-1",
		"profile": map[string]any{
			"name":          "Ann",
			"notifications": map[string]any{"email": "yes"},
		},
	})
	verr, ok := AsValidationError(err)
	require.True(t, ok)
	require.Len(t, verr.Issues, 1)
	assert.Equal(t, "profile.notifications.email", verr.Issues[0].Path)
	assert.Equal(t, "expected boolean, got string", verr.Issues[0].Message)
}

func TestObject_CollectsAllIssues(t *testing.T) {
	c := preferencesContract()

	_, err := c.Validate(map[string]any{
		"profile": map[string]any{
			"name":          "A",
			"notifications": map[string]any{"email": true},
			"tags":          []any{"ok", 5},
		},
	})
	verr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.ElementsMatch(t,
		[]string{"user_id", "profile.name", "profile.tags[1]"},
		verr.Paths())
	assert.Contains(t, err.Error(), "profile.name: must be at least 2 characters")
}

func TestObject_NilDataIsEmptyObject(t *testing.T) {
	out, err := Object().Validate(nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, out)

	_, err = Object(Required("a", Any())).Validate(nil)
	assert.Error(t, err)
}

func TestObject_IntegerNormalization(t *testing.T) {
	c := Object(Required("n", Integer()), Optional("x", Number()))

	out, err := c.Validate(map[string]any{"n": float64(3), "x": 1.5})
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.(map[string]any)["n"])

	_, err = c.Validate(map[string]any{"n": 3.5})
	verr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "expected integer, got number", verr.Issues[0].Message)
}

func TestObject_IntegerRange(t *testing.T) {
	c := Object(Required("n", Integer()))

	for _, v := range []any{1e300, -1e300, math.Inf(1), float64(1 << 63)} {
		_, err := c.Validate(map[string]any{"n": v})
		verr, ok := AsValidationError(err)
		require.True(t, ok, "%v", v)
		assert.Contains(t, verr.Issues[0].Message, "out of range", "%v", v)
	}

	out, err := c.Validate(map[string]any{"n": int64(math.MaxInt64)})
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), out.(map[string]any)["n"])

	out, err = c.Validate(map[string]any{"n": json.Number("-9223372036854775808")})
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), out.(map[string]any)["n"])

	out, err = c.Validate(map[string]any{"n": float64(-1 << 63)})
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), out.(map[string]any)["n"])
}

func TestObject_OptionalNullIsSkipped(t *testing.T) {
	c := Object(Optional("note", String()))

	out, err := c.Validate(map[string]any{"note": nil})
	require.NoError(t, err)
	assert.NotContains(t, out.(map[string]any), "note")
}

func TestObject_MapOf(t *testing.T) {
	c := Object(Required("labels", MapOf(String())))

	_, err := c.Validate(map[string]any{"labels": map[string]any{"b": 1, "a": true}})
	verr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"labels.a", "labels.b"}, verr.Paths(), "ключи обходятся в отсортированном порядке")
}

func TestObject_String(t *testing.T) {
	c := Object(Required("a", Integer()), Optional("b", ListOf(Any())))
	assert.Equal(t, "a:integer, b:array?", c.String())
	assert.False(t, c.IsEmpty())
	assert.True(t, Object().IsEmpty())
}
