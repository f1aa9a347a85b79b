// Package invoke drives an envelope handler the way a function runner host
// does: one request envelope in, one response envelope out.
package invoke

import (
	"bytes"
	"context"
	"fmt"

	"github.com/lacquerai/taxfn/internal/envelope"
	"github.com/lacquerai/taxfn/internal/handler"
	"github.com/lacquerai/taxfn/internal/order"
)

// Invoker sends one raw request envelope to a handler and returns the raw
// response envelope.
type Invoker interface {
	Invoke(ctx context.Context, request []byte) ([]byte, error)
}

// LocalInvoker runs the handler pipeline in-process.
type LocalInvoker struct{}

// Invoke implements Invoker
func (LocalInvoker) Invoke(ctx context.Context, request []byte) ([]byte, error) {
	var out bytes.Buffer
	if err := handler.Handle(ctx, bytes.NewReader(request), &out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Result is a decoded response envelope together with the output it carries.
type Result struct {
	Raw      []byte            `json:"-" yaml:"-"`
	Response envelope.Response `json:"response" yaml:"response"`
	Output   order.Output      `json:"output" yaml:"output"`
}

// NewRequest builds a well-formed request envelope for an order.
func NewRequest(id string, value float64) ([]byte, error) {
	body, err := envelope.Marshal(order.Order{ID: id, Value: value})
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}
	return envelope.EncodeRequest(envelope.Request{Body: string(body)})
}

// NewRequestWithBody wraps arbitrary payload text in a request envelope.
func NewRequestWithBody(body string) ([]byte, error) {
	return envelope.EncodeRequest(envelope.Request{Body: body})
}

// Decode parses a raw response envelope and the output in its body.
func Decode(raw []byte) (*Result, error) {
	resp, err := envelope.DecodeResponse(raw)
	if err != nil {
		return nil, err
	}

	out, err := order.DecodeOutput(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Result{
		Raw:      raw,
		Response: resp,
		Output:   out,
	}, nil
}

// Do invokes inv with request and decodes the reply.
func Do(ctx context.Context, inv Invoker, request []byte) (*Result, error) {
	raw, err := inv.Invoke(ctx, request)
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}
