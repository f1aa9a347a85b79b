package envelope

import "errors"

var (
	ErrMalformedEnvelope = errors.New("envelope: malformed json")
	ErrMissingBody       = errors.New("envelope: missing body")
	ErrInvalidEncoding   = errors.New("envelope: input is not valid utf-8")
)
