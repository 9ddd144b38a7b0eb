package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createUser struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Age     int    `json:"age" validate:"gte=0,lte=150"`
	Profile struct {
		Bio string `json:"bio" validate:"max=10"`
	} `json:"profile"`
}

func TestStruct_Valid(t *testing.T) {
	c := Struct[createUser]()

	out, err := c.Validate(map[string]any{"name": "Ann", "email": "ann@example.com", "age": 30})
	require.NoError(t, err)

	u, ok := out.(*createUser)
	require.True(t, ok)
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, 30, u.Age)
}

func TestStruct_FieldErrorsUseJSONNames(t *testing.T) {
	c := Struct[createUser]()

	_, err := c.Validate(map[string]any{
		"email":   "not-an-email",
		"profile": map[string]any{"bio": "much too long for this"},
	})
	verr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"name", "email", "profile.bio"}, verr.Paths())
	assert.Contains(t, err.Error(), "name: missing required field")
	assert.Contains(t, err.Error(), "profile.bio: must be at most 10")
}

func TestStruct_TypeMismatch(t *testing.T) {
	c := Struct[createUser]()

	_, err := c.Validate(map[string]any{"name": "Ann", "email": "a@b.co", "age": "old"})
	verr, ok := AsValidationError(err)
	require.True(t, ok)
	require.Len(t, verr.Issues, 1)
	assert.Equal(t, "age", verr.Issues[0].Path)
	assert.Equal(t, "expected integer, got string", verr.Issues[0].Message)
}

func TestStruct_String(t *testing.T) {
	assert.Equal(t, "struct:contract.createUser", Struct[createUser]().String())
}
