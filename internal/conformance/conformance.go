// Package conformance checks any envelope handler, local or external, against
// a catalogue of protocol cases.
package conformance

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/lacquerai/taxfn/internal/envelope"
	"github.com/lacquerai/taxfn/internal/invoke"
	"github.com/lacquerai/taxfn/internal/order"
	"github.com/rs/zerolog"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Options controls a conformance run.
type Options struct {
	// Engine is the literal every response must carry. Empty skips the check.
	Engine string
	// Cases defaults to the built-in catalogue.
	Cases []Case
}

// CaseResult is the verdict for a single case.
type CaseResult struct {
	Name     string   `json:"name" yaml:"name"`
	Passed   bool     `json:"passed" yaml:"passed"`
	Failures []string `json:"failures,omitempty" yaml:"failures,omitempty"`
	Expected string   `json:"expected" yaml:"expected"`
	Actual   string   `json:"actual,omitempty" yaml:"actual,omitempty"`
	Patch    string   `json:"patch,omitempty" yaml:"patch,omitempty"`

	diffs []diffmatchpatch.Diff
}

// PrettyDiff renders the body diff with ANSI colours for terminals.
func (r CaseResult) PrettyDiff() string {
	if len(r.diffs) == 0 {
		return ""
	}
	return diffmatchpatch.New().DiffPrettyText(r.diffs)
}

// Report aggregates a run.
type Report struct {
	Engine  string       `json:"engine" yaml:"engine"`
	Passed  int          `json:"passed" yaml:"passed"`
	Failed  int          `json:"failed" yaml:"failed"`
	Results []CaseResult `json:"results" yaml:"results"`
}

// OK reports whether every case passed.
func (r *Report) OK() bool {
	return r.Failed == 0
}

// Run sends every case to inv twice and checks the envelope shape, the output
// values and that both replies are byte-identical.
func Run(ctx context.Context, inv invoke.Invoker, opts Options) (*Report, error) {
	cases := opts.Cases
	if cases == nil {
		var err error
		if cases, err = BuiltinCases(); err != nil {
			return nil, err
		}
	}

	logger := zerolog.Ctx(ctx)
	report := &Report{Engine: opts.Engine}

	for _, tc := range cases {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res := check(ctx, inv, tc, opts.Engine)
		if res.Passed {
			report.Passed++
		} else {
			report.Failed++
			logger.Debug().Str("case", tc.Name).Strs("failures", res.Failures).Msg("Case failed")
		}
		report.Results = append(report.Results, res)
	}

	return report, nil
}

func check(ctx context.Context, inv invoke.Invoker, tc Case, engine string) (res CaseResult) {
	want := order.Output{OrderID: tc.OrderID, TotalFinal: tc.TotalFinal, Engine: engine}
	res.Name = tc.Name

	defer func() {
		res.Expected, _ = order.EncodeOutput(want)
		res.Passed = len(res.Failures) == 0
		if !res.Passed {
			res.diff()
		}
	}()

	fail := func(format string, args ...any) {
		res.Failures = append(res.Failures, fmt.Sprintf(format, args...))
	}

	first, err := inv.Invoke(ctx, []byte(tc.Request))
	if err != nil {
		fail("invoke: %v", err)
		return res
	}

	resp, err := envelope.DecodeResponse(first)
	if err != nil {
		fail("response envelope: %v", err)
		res.Actual = string(first)
		return res
	}
	res.Actual = resp.Body

	if resp.Status != envelope.StatusOK {
		fail("status: want %d, got %d", envelope.StatusOK, resp.Status)
	}
	if len(resp.Headers) != 1 || resp.Headers[envelope.HeaderContentType] != envelope.ContentTypeJSON {
		fail("headers: want exactly %s: %s, got %v", envelope.HeaderContentType, envelope.ContentTypeJSON, resp.Headers)
	}

	got, err := order.DecodeOutput(resp.Body)
	if err != nil {
		fail("body: %v", err)
	} else {
		if engine == "" {
			want.Engine = got.Engine
		}
		if got.OrderID != want.OrderID {
			fail("order_id: want %q, got %q", want.OrderID, got.OrderID)
		}
		if !closeEnough(got.TotalFinal, want.TotalFinal) {
			fail("total_final: want %v, got %v", want.TotalFinal, got.TotalFinal)
		}
		if got.Engine != want.Engine {
			fail("engine: want %q, got %q", want.Engine, got.Engine)
		}
	}

	second, err := inv.Invoke(ctx, []byte(tc.Request))
	switch {
	case err != nil:
		fail("repeat invoke: %v", err)
	case !bytes.Equal(first, second):
		fail("repeat invoke: response differs from first reply")
	}

	return res
}

func (r *CaseResult) diff() {
	dmp := diffmatchpatch.New()
	r.diffs = dmp.DiffMain(r.Expected, r.Actual, false)
	if r.Expected != r.Actual {
		r.Patch = dmp.PatchToText(dmp.PatchMake(r.Expected, r.diffs))
	}
}

func closeEnough(got, want float64) bool {
	return math.Abs(got-want) <= 1e-9*math.Max(1, math.Abs(want))
}
