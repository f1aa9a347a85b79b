// Package order holds the business payload carried inside the envelopes: the
// incoming order, the taxed result, and the calculation between them.
package order

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/lacquerai/taxfn/internal/envelope"
)

const (
	// Engine identifies this implementation in every result. It is fixed at
	// build time and never derived from input.
	Engine = "gojinn-go"

	// TaxRate is applied to every order value.
	TaxRate = 0.15

	// SentinelID marks a result computed from an undecodable payload.
	SentinelID = "error"
)

// Order is the payload decoded from a request body.
type Order struct {
	ID    string  `json:"id"`
	Value float64 `json:"value"`
}

// Output is the result encoded into a response body.
type Output struct {
	OrderID    string  `json:"order_id"`
	TotalFinal float64 `json:"total_final"`
	Engine     string  `json:"engine" jsonschema:"description=fixed identifier of the producing implementation"`
}

// MarshalJSON writes a non-finite total as null so that an overflowing order
// still produces a response.
func (o Output) MarshalJSON() ([]byte, error) {
	type wire struct {
		OrderID    string   `json:"order_id"`
		TotalFinal *float64 `json:"total_final"`
		Engine     string   `json:"engine"`
	}

	w := wire{OrderID: o.OrderID, Engine: o.Engine}
	if !math.IsInf(o.TotalFinal, 0) && !math.IsNaN(o.TotalFinal) {
		total := o.TotalFinal
		w.TotalFinal = &total
	}
	return envelope.Marshal(w)
}

// Sentinel returns the order used in place of an undecodable payload.
func Sentinel() Order {
	return Order{ID: SentinelID, Value: 0.0}
}

// DecodeOrder parses body as an Order. Both members are required: id must be
// a string and value a number. Unknown members are ignored.
func DecodeOrder(body string) (Order, error) {
	fields, err := envelope.Fields([]byte(body))
	if err != nil {
		return Order{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	var o Order
	ok, err := envelope.Field(fields, "id", &o.ID)
	if err != nil {
		return Order{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if !ok {
		return Order{}, ErrMissingID
	}

	ok, err = envelope.Field(fields, "value", &o.Value)
	if err != nil {
		return Order{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if !ok {
		return Order{}, ErrMissingValue
	}

	return o, nil
}

// OrderOrSentinel absorbs a decode failure by substituting Sentinel.
func OrderOrSentinel(o Order, err error) Order {
	if err != nil {
		return Sentinel()
	}
	return o
}

// Tax returns the tax owed on o.
func Tax(o Order) float64 {
	return o.Value * TaxRate
}

// Compute applies the tax to o. The total is kept at full float64 precision.
func Compute(o Order) Output {
	return Output{
		OrderID:    o.ID,
		TotalFinal: o.Value + Tax(o),
		Engine:     Engine,
	}
}

// EncodeOutput renders out as the JSON text carried in a response body.
func EncodeOutput(out Output) (string, error) {
	data, err := envelope.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode output: %w", err)
	}
	return string(data), nil
}

// DecodeOutput parses a response body produced by any engine.
func DecodeOutput(body string) (Output, error) {
	var out Output
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return Output{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return out, nil
}
