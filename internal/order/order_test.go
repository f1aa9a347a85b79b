package order

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOrder(t *testing.T) {
	o, err := DecodeOrder(`{"id":"A1","value":100}`)
	require.NoError(t, err)
	assert.Equal(t, Order{ID: "A1", Value: 100}, o)
}

func TestDecodeOrder_IgnoresUnknownMembers(t *testing.T) {
	o, err := DecodeOrder(`{"id":"A1","value":12.5,"currency":"EUR"}`)
	require.NoError(t, err)
	assert.Equal(t, Order{ID: "A1", Value: 12.5}, o)
}

func TestDecodeOrder_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"empty object", `{}`, ErrMissingID},
		{"missing value", `{"id":"A1"}`, ErrMissingValue},
		{"null value", `{"id":"A1","value":null}`, ErrMissingValue},
		{"missing id", `{"value":1}`, ErrMissingID},
		{"string value", `{"id":"A1","value":"100"}`, ErrMalformedPayload},
		{"numeric id", `{"id":1,"value":100}`, ErrMalformedPayload},
		{"not json", `oops`, ErrMalformedPayload},
		{"empty body", ``, ErrMalformedPayload},
		{"array", `[1,2]`, ErrMalformedPayload},
		{"out of range value", `{"id":"A1","value":1e400}`, ErrMalformedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeOrder(tt.body)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOrderOrSentinel(t *testing.T) {
	o := Order{ID: "A1", Value: 3}

	assert.Equal(t, o, OrderOrSentinel(o, nil))
	assert.Equal(t, Order{ID: "error", Value: 0}, OrderOrSentinel(o, ErrMissingID))
	assert.Equal(t, Sentinel(), OrderOrSentinel(DecodeOrder(`{}`)))
}

func TestCompute(t *testing.T) {
	values := []float64{0, 1, 100, 19.99, -40, 1234567.891, 1e-9}
	for _, v := range values {
		out := Compute(Order{ID: "X", Value: v})

		assert.Equal(t, "X", out.OrderID)
		assert.Equal(t, Engine, out.Engine)
		assert.InDelta(t, v*1.15, out.TotalFinal, 1e-9*math.Max(1, math.Abs(v)))
	}
}

func TestCompute_Sentinel(t *testing.T) {
	out := Compute(Sentinel())
	assert.Equal(t, Output{OrderID: "error", TotalFinal: 0, Engine: "gojinn-go"}, out)
}

func TestEncodeOutput(t *testing.T) {
	body, err := EncodeOutput(Compute(Order{ID: "A1", Value: 100}))
	require.NoError(t, err)
	assert.Equal(t, `{"order_id":"A1","total_final":115,"engine":"gojinn-go"}`, body)
}

func TestEncodeOutput_NonFiniteTotal(t *testing.T) {
	body, err := EncodeOutput(Compute(Order{ID: "big", Value: math.MaxFloat64}))
	require.NoError(t, err)
	assert.Equal(t, `{"order_id":"big","total_final":null,"engine":"gojinn-go"}`, body)
}

func TestEncodeOutput_KeepsMarkup(t *testing.T) {
	body, err := EncodeOutput(Output{OrderID: "<b>&", Engine: Engine})
	require.NoError(t, err)
	assert.Contains(t, body, `"order_id":"<b>&"`)
}

func TestOutputRoundTrip(t *testing.T) {
	in := Output{OrderID: "Z-9", TotalFinal: 57.49999999999999, Engine: Engine}

	body, err := EncodeOutput(in)
	require.NoError(t, err)

	out, err := DecodeOutput(body)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeOutput_Malformed(t *testing.T) {
	_, err := DecodeOutput(`{"order_id":`)
	assert.ErrorIs(t, err, ErrMalformedOutput)
}
