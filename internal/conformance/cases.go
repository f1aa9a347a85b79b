package conformance

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed cases.yaml
var builtinCases []byte

var ErrInvalidCase = errors.New("conformance: invalid case")

// Case is one request with the output every engine must produce for it.
type Case struct {
	Name       string  `yaml:"name" json:"name"`
	Request    string  `yaml:"request" json:"request"`
	OrderID    string  `yaml:"order_id" json:"order_id"`
	TotalFinal float64 `yaml:"total_final" json:"total_final"`
}

type catalogue struct {
	Cases []Case `yaml:"cases"`
}

// BuiltinCases returns the embedded protocol catalogue.
func BuiltinCases() ([]Case, error) {
	return ParseCases(builtinCases)
}

// ParseCases decodes a YAML catalogue.
func ParseCases(data []byte) ([]Case, error) {
	var c catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse cases: %w", err)
	}

	seen := make(map[string]bool, len(c.Cases))
	for i, tc := range c.Cases {
		if tc.Name == "" {
			return nil, fmt.Errorf("%w: case %d has no name", ErrInvalidCase, i)
		}
		if tc.OrderID == "" {
			return nil, fmt.Errorf("%w: case %q has no order_id", ErrInvalidCase, tc.Name)
		}
		if seen[tc.Name] {
			return nil, fmt.Errorf("%w: duplicate case %q", ErrInvalidCase, tc.Name)
		}
		seen[tc.Name] = true
	}

	return c.Cases, nil
}
