package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReflect_Required(t *testing.T) {
	docs := Reflect()

	assert.Equal(t, []string{"body"}, docs.Request.Required)
	assert.ElementsMatch(t, []string{"status", "headers", "body"}, docs.Response.Required)
	assert.ElementsMatch(t, []string{"id", "value"}, docs.Order.Required)
	assert.ElementsMatch(t, []string{"order_id", "total_final", "engine"}, docs.Output.Required)
}

func TestReflect_EngineIsConstant(t *testing.T) {
	engine, ok := Reflect().Output.Properties.Get("engine")
	require.True(t, ok)
	assert.Equal(t, "gojinn-go", engine.Const)
}

func TestReflect_OptionalHostFields(t *testing.T) {
	props := Reflect().Request.Properties
	for _, key := range []string{"body", "method", "uri", "headers", "trace_id"} {
		_, ok := props.Get(key)
		assert.True(t, ok, key)
	}
}

func TestGenerate(t *testing.T) {
	data, err := Generate()
	require.NoError(t, err)

	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Len(t, out, 4)
	for _, key := range []string{"request", "response", "order", "output"} {
		assert.Contains(t, out, key)
	}
	assert.Contains(t, string(out["output"]), `"const": "gojinn-go"`)
}
