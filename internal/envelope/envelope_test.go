package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"body":"{\"id\":\"A1\",\"value\":100}"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"id":"A1","value":100}`, req.Body)
	assert.Empty(t, req.Method)
}

func TestDecodeRequest_HostMetadata(t *testing.T) {
	raw := `{"method":"POST","uri":"/api/bench","headers":{"X-Req":["1"]},"body":"{}","trace_id":"t-1"}`

	req, err := DecodeRequest([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "{}", req.Body)
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "/api/bench", req.URI)
	assert.Equal(t, []string{"1"}, req.Headers["X-Req"])
	assert.Equal(t, "t-1", req.TraceID)
}

func TestDecodeRequest_MistypedMetadataIsDropped(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"body":"{}","headers":{"X-Req":"1"},"trace_id":7}`))
	require.NoError(t, err)
	assert.Equal(t, "{}", req.Body)
	assert.Nil(t, req.Headers)
	assert.Empty(t, req.TraceID)
}

func TestDecodeRequest_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  error
	}{
		{"not json", []byte("not json"), ErrMalformedEnvelope},
		{"empty input", []byte(""), ErrMalformedEnvelope},
		{"array", []byte(`["body"]`), ErrMalformedEnvelope},
		{"top-level null", []byte("null"), ErrMalformedEnvelope},
		{"trailing data", []byte(`{"body":"{}"} {}`), ErrMalformedEnvelope},
		{"body not a string", []byte(`{"body":{"id":"A1"}}`), ErrMalformedEnvelope},
		{"missing body", []byte(`{}`), ErrMissingBody},
		{"null body", []byte(`{"body":null}`), ErrMissingBody},
		{"body key differs in case", []byte(`{"Body":"{}"}`), ErrMissingBody},
		{"invalid utf-8", []byte{'{', '"', 'b', 0xff, '"', '}'}, ErrInvalidEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRequest(tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRequestOrDefault(t *testing.T) {
	req := Request{Body: `{"id":"A1","value":1}`}

	assert.Equal(t, req, RequestOrDefault(req, nil))
	assert.Equal(t, Request{Body: "{}"}, RequestOrDefault(req, ErrMissingBody))
	assert.Equal(t, DefaultRequest(), RequestOrDefault(DecodeRequest([]byte("not json"))))
}

func TestNewJSONResponse(t *testing.T) {
	resp := NewJSONResponse(`{"ok":true}`)

	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, map[string]string{"Content-Type": "application/json"}, resp.Headers)
	assert.Equal(t, `{"ok":true}`, resp.Body)
}

func TestEncodeResponse(t *testing.T) {
	data, err := EncodeResponse(NewJSONResponse(`{"order_id":"A1","total_final":115,"engine":"x"}`))
	require.NoError(t, err)

	want := `{"status":200,"headers":{"Content-Type":"application/json"},"body":"{\"order_id\":\"A1\",\"total_final\":115,\"engine\":\"x\"}"}`
	assert.Equal(t, want, string(data))
}

func TestEncodeResponse_NoHTMLEscaping(t *testing.T) {
	data, err := EncodeResponse(NewJSONResponse(`<a&b>`))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"body":"<a&b>"`)
}

func TestDecodeResponse(t *testing.T) {
	resp, err := DecodeResponse([]byte(`{"status":200,"headers":{"Content-Type":"application/json"},"body":"{}"}`))
	require.NoError(t, err)
	assert.Equal(t, NewJSONResponse("{}"), resp)

	_, err = DecodeResponse([]byte("{"))
	assert.ErrorIs(t, err, ErrMalformedEnvelope)
}

func TestEncodeRequest_RoundTrip(t *testing.T) {
	in := Request{Body: `{"id":"A1","value":100}`, TraceID: "abc"}

	data, err := EncodeRequest(in)
	require.NoError(t, err)

	out, err := DecodeRequest(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestMarshal_NoTrailingNewline(t *testing.T) {
	data, err := Marshal(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
}
