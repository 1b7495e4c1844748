package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string"},
    "count": {"type": "integer", "minimum": 1}
  }
}`

func TestSchema_Valid(t *testing.T) {
	s := MustCompile([]byte(testSchema))

	res, err := s.Validate([]byte(`{"name":"x","count":2}`))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	assert.NoError(t, res.Err())
}

func TestSchema_Invalid(t *testing.T) {
	s := MustCompile([]byte(testSchema))

	res, err := s.Validate([]byte(`{"count":0}`))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 2)

	verr := res.Err()
	require.Error(t, verr)
	assert.Contains(t, verr.Error(), "name")
	assert.Contains(t, verr.Error(), "count")
}

func TestSchema_NotJSON(t *testing.T) {
	s := MustCompile([]byte(testSchema))

	_, err := s.Validate([]byte(`{not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")
}

func TestCompile_BadSchema(t *testing.T) {
	_, err := Compile([]byte(`{"type": 12}`))
	assert.Error(t, err)

	assert.Panics(t, func() { MustCompile([]byte(`nope`)) })
}

func TestValidationError_Error(t *testing.T) {
	assert.Equal(t, "name: is required", ValidationError{Field: "name", Description: "is required"}.Error())
	assert.Equal(t, "count: too small (value: 0)",
		ValidationError{Field: "count", Description: "too small", Value: 0}.Error())
}
