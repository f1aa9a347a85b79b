package order

import "errors"

var (
	ErrMalformedPayload = errors.New("order: malformed payload")
	ErrMissingID        = errors.New("order: missing id")
	ErrMissingValue     = errors.New("order: missing value")
	ErrMalformedOutput  = errors.New("order: malformed output")
)
