package solverconfig_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WillCodeCo/solver-util/solverconfig"
)

const sampleSchema = `{
	"type": "object",
	"properties": {
		"solving_time": {"type": ["integer", "null"]},
		"bet_sizes": {"type": "array"}
	},
	"required": ["solving_time"],
	"additionalProperties": false
}`

func TestValidatorStrictRejectsUnknownField(t *testing.T) {
	v := solverconfig.NewValidator()
	data := []byte(`{"solving_time": 30, "unknown_field": "oops"}`)

	err := v.Validate([]byte(sampleSchema), solverconfig.Strict, data)
	require.Error(t, err)
}

func TestValidatorLenientAllowsUnknownField(t *testing.T) {
	v := solverconfig.NewValidator()
	data := []byte(`{"solving_time": 30, "unknown_field": "oops"}`)

	err := v.Validate([]byte(sampleSchema), solverconfig.Lenient, data)
	require.NoError(t, err)
}

func TestValidatorRejectsMissingRequiredField(t *testing.T) {
	v := solverconfig.NewValidator()
	data := []byte(`{"bet_sizes": [50, 100]}`)

	err := v.Validate([]byte(sampleSchema), solverconfig.Strict, data)
	require.Error(t, err)

	err = v.Validate([]byte(sampleSchema), solverconfig.Lenient, data)
	require.Error(t, err)
}

func TestValidatorAcceptsValidConfig(t *testing.T) {
	v := solverconfig.NewValidator()
	data := []byte(`{"solving_time": 30, "bet_sizes": [50, 100]}`)

	require.NoError(t, v.Validate([]byte(sampleSchema), solverconfig.Strict, data))
	require.NoError(t, v.Validate([]byte(sampleSchema), solverconfig.Lenient, data))
}

func TestValidatorCachesCompiledSchema(t *testing.T) {
	v := solverconfig.NewValidator()
	data := []byte(`{"solving_time": 30}`)

	for i := 0; i < 3; i++ {
		require.NoError(t, v.Validate([]byte(sampleSchema), solverconfig.Strict, data))
	}
}
