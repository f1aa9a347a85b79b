package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

const (
	// StatusOK is the only status the handler ever reports.
	StatusOK = 200

	HeaderContentType = "Content-Type"
	ContentTypeJSON   = "application/json"

	// DefaultBody is substituted when the request envelope cannot be decoded.
	DefaultBody = "{}"
)

// Request is the envelope the host writes to the handler's stdin. Body carries
// the business payload as JSON text.
type Request struct {
	Body    string              `json:"body" jsonschema:"description=JSON-encoded business payload"`
	Method  string              `json:"method,omitempty"`
	URI     string              `json:"uri,omitempty"`
	Headers map[string][]string `json:"headers,omitempty"`
	TraceID string              `json:"trace_id,omitempty"`
}

// Response is the envelope the handler writes to stdout.
type Response struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body" jsonschema:"description=JSON-encoded business result"`
}

// DefaultRequest returns the envelope used in place of an undecodable one.
func DefaultRequest() Request {
	return Request{Body: DefaultBody}
}

// DecodeRequest parses data as a request envelope. The whole input must be a
// single JSON object whose "body" member is a string. Member names are matched
// exactly.
func DecodeRequest(data []byte) (Request, error) {
	if !utf8.Valid(data) {
		return Request{}, ErrInvalidEncoding
	}

	fields, err := Fields(data)
	if err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	var req Request
	ok, err := Field(fields, "body", &req.Body)
	if err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if !ok {
		return Request{}, ErrMissingBody
	}

	// Host metadata is advisory: a mistyped member is dropped, never fatal.
	if _, err := Field(fields, "method", &req.Method); err != nil {
		req.Method = ""
	}
	if _, err := Field(fields, "uri", &req.URI); err != nil {
		req.URI = ""
	}
	if _, err := Field(fields, "headers", &req.Headers); err != nil {
		req.Headers = nil
	}
	if _, err := Field(fields, "trace_id", &req.TraceID); err != nil {
		req.TraceID = ""
	}

	return req, nil
}

// Fields splits a JSON object into its raw members.
func Fields(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("top-level value is not an object")
	}
	return fields, nil
}

// Field decodes the member named key into dst. It reports false when the
// member is absent or null.
func Field(fields map[string]json.RawMessage, key string, dst any) (bool, error) {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("field %q: %w", key, err)
	}
	return true, nil
}

// RequestOrDefault absorbs a decode failure by substituting DefaultRequest.
func RequestOrDefault(req Request, err error) Request {
	if err != nil {
		return DefaultRequest()
	}
	return req
}

// NewJSONResponse wraps an already encoded JSON body in a 200 envelope.
func NewJSONResponse(body string) Response {
	return Response{
		Status: StatusOK,
		Headers: map[string]string{
			HeaderContentType: ContentTypeJSON,
		},
		Body: body,
	}
}

// EncodeResponse renders resp as compact JSON with no trailing newline.
func EncodeResponse(resp Response) ([]byte, error) {
	data, err := Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return data, nil
}

// DecodeResponse parses a response envelope as produced by a handler.
func DecodeResponse(data []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return resp, nil
}

// EncodeRequest renders a request envelope the way a host would send it.
func EncodeRequest(req Request) ([]byte, error) {
	data, err := Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return data, nil
}

// Marshal is json.Marshal without HTML escaping, so payload text reaches the
// host exactly as it was produced.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
