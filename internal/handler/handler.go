// Package handler implements the one-shot envelope pipeline: read the request
// envelope, decode the order it carries, apply the tax, and write the response
// envelope. Malformed input never aborts the pipeline; only stream faults do.
package handler

import (
	"context"
	"fmt"
	"io"

	"github.com/lacquerai/taxfn/internal/envelope"
	"github.com/lacquerai/taxfn/internal/order"
	"github.com/rs/zerolog"
)

// Outcome is the result of processing one request envelope. EnvelopeErr and
// PayloadErr record decode failures that were absorbed into defaults.
type Outcome struct {
	Request     envelope.Request
	Order       order.Order
	Output      order.Output
	Response    envelope.Response
	EnvelopeErr error
	PayloadErr  error
}

// Fallback reports whether any default was substituted.
func (o Outcome) Fallback() bool {
	return o.EnvelopeErr != nil || o.PayloadErr != nil
}

// Process runs the decode, compute and encode stages over a complete request.
// The returned error is non-nil only if the result could not be encoded.
func Process(ctx context.Context, raw []byte) (Outcome, error) {
	logger := zerolog.Ctx(ctx)

	var outcome Outcome

	req, err := envelope.DecodeRequest(raw)
	if err != nil {
		logger.Warn().Err(err).Int("bytes", len(raw)).Msg("Request envelope rejected, using default body")
	}
	outcome.EnvelopeErr = err
	outcome.Request = envelope.RequestOrDefault(req, err)

	o, err := order.DecodeOrder(outcome.Request.Body)
	if err != nil {
		logger.Warn().Err(err).Str("trace_id", outcome.Request.TraceID).Msg("Order payload rejected, using sentinel")
	}
	outcome.PayloadErr = err
	outcome.Order = order.OrderOrSentinel(o, err)

	outcome.Output = order.Compute(outcome.Order)
	logger.Debug().
		Str("trace_id", outcome.Request.TraceID).
		Str("order_id", outcome.Output.OrderID).
		Float64("value", outcome.Order.Value).
		Float64("total_final", outcome.Output.TotalFinal).
		Msg("Order taxed")

	body, err := order.EncodeOutput(outcome.Output)
	if err != nil {
		return outcome, err
	}
	outcome.Response = envelope.NewJSONResponse(body)

	return outcome, nil
}

// Handle reads a request envelope from in until EOF and writes exactly one
// response envelope to out. Errors are returned only for stream and encoding
// faults.
func Handle(ctx context.Context, in io.Reader, out io.Writer) error {
	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}

	outcome, err := Process(ctx, raw)
	if err != nil {
		return err
	}

	data, err := envelope.EncodeResponse(outcome.Response)
	if err != nil {
		return err
	}

	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}
