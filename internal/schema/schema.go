// Package schema publishes JSON Schemas for the documents exchanged with the
// host and carried inside envelope bodies.
package schema

import (
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/lacquerai/taxfn/internal/envelope"
	"github.com/lacquerai/taxfn/internal/order"
	"github.com/stoewer/go-strcase"
)

// Documents is the combined schema output.
type Documents struct {
	Request  *jsonschema.Schema `json:"request"`
	Response *jsonschema.Schema `json:"response"`
	Order    *jsonschema.Schema `json:"order"`
	Output   *jsonschema.Schema `json:"output"`
}

// NewReflector creates a reflector that names definitions in snake_case and
// inlines the top-level struct.
func NewReflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		KeyNamer: strcase.SnakeCase,
		Namer: func(t reflect.Type) string {
			return strcase.SnakeCase(t.Name())
		},
		ExpandedStruct: true,
	}
}

// Reflect returns the schema for each wire document.
func Reflect() Documents {
	r := NewReflector()

	docs := Documents{
		Request:  r.Reflect(&envelope.Request{}),
		Response: r.Reflect(&envelope.Response{}),
		Order:    r.Reflect(&order.Order{}),
		Output:   r.Reflect(&order.Output{}),
	}

	docs.Request.Title = "Request envelope"
	docs.Response.Title = "Response envelope"
	docs.Order.Title = "Order payload"
	docs.Output.Title = "Output payload"
	docs.Output.Properties.Set("engine", &jsonschema.Schema{
		Type:        "string",
		Const:       order.Engine,
		Description: "fixed identifier of the producing implementation",
	})

	return docs
}

// Generate renders Reflect as indented JSON.
func Generate() ([]byte, error) {
	return json.MarshalIndent(Reflect(), "", "  ")
}
