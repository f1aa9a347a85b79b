// Package bench measures handler latency by replaying one request envelope
// through an Invoker from a fixed-size worker pool.
package bench

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lacquerai/taxfn/internal/invoke"
	"github.com/lacquerai/taxfn/internal/order"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

var (
	ErrNoSuccessfulRequests = errors.New("bench: no successful requests")
	ErrInvalidConfig        = errors.New("bench: invalid config")
)

// Config controls a benchmark run.
type Config struct {
	Name        string
	Requests    int
	Concurrency int
	Request     []byte

	// OnProgress, if set, is called after every completed invocation.
	OnProgress func(done, total int)
}

// DefaultConfig returns 1000 requests over 10 workers for order {"id":"1","value":100}.
func DefaultConfig() Config {
	req, _ := invoke.NewRequest("1", 100)
	return Config{
		Name:        "local",
		Requests:    1000,
		Concurrency: 10,
		Request:     req,
	}
}

func (c Config) validate() error {
	if c.Requests <= 0 {
		return fmt.Errorf("%w: requests must be positive, got %d", ErrInvalidConfig, c.Requests)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrency must be positive, got %d", ErrInvalidConfig, c.Concurrency)
	}
	return nil
}

// Report summarises a run. Latency figures are in microseconds.
type Report struct {
	Name           string        `json:"name" yaml:"name"`
	Requests       int           `json:"requests" yaml:"requests"`
	Concurrency    int           `json:"concurrency" yaml:"concurrency"`
	Succeeded      int           `json:"succeeded" yaml:"succeeded"`
	Fallbacks      int           `json:"fallbacks" yaml:"fallbacks"`
	Failed         int           `json:"failed" yaml:"failed"`
	TotalTime      time.Duration `json:"total_time" yaml:"total_time"`
	RequestsPerSec float64       `json:"requests_per_sec" yaml:"requests_per_sec"`
	Min            float64       `json:"min_us" yaml:"min_us"`
	Avg            float64       `json:"avg_us" yaml:"avg_us"`
	P50            float64       `json:"p50_us" yaml:"p50_us"`
	P95            float64       `json:"p95_us" yaml:"p95_us"`
	P99            float64       `json:"p99_us" yaml:"p99_us"`
	Max            float64       `json:"max_us" yaml:"max_us"`

	// Latencies holds every successful sample, sorted ascending.
	Latencies []float64 `json:"-" yaml:"-"`

	gatherer prometheus.Gatherer
	rec      *recorder
}

type sample struct {
	latency time.Duration
	outcome string
}

// Run replays cfg.Request cfg.Requests times with cfg.Concurrency workers.
// Failed invocations are counted but contribute no latency sample.
func Run(ctx context.Context, inv invoke.Invoker, cfg Config) (*Report, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx)
	registry := prometheus.NewRegistry()
	rec := newRecorder(registry)

	start := time.Now()
	jobs := make(chan int, cfg.Requests)
	results := make(chan sample, cfg.Requests)
	var done atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				s := invokeOnce(ctx, inv, cfg.Request)
				if s.outcome == OutcomeError {
					logger.Debug().Str("bench", cfg.Name).Msg("Invocation failed")
				}
				rec.observe(s)
				results <- s

				n := done.Add(1)
				if cfg.OnProgress != nil {
					cfg.OnProgress(int(n), cfg.Requests)
				}
			}
		}()
	}

feed:
	for i := 0; i < cfg.Requests; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	close(results)
	totalTime := time.Since(start)

	report := &Report{
		Name:        cfg.Name,
		Requests:    cfg.Requests,
		Concurrency: cfg.Concurrency,
		TotalTime:   totalTime,
		gatherer:    registry,
		rec:         rec,
	}

	for s := range results {
		switch s.outcome {
		case OutcomeError:
			report.Failed++
			continue
		case OutcomeFallback:
			report.Fallbacks++
		}
		report.Succeeded++
		report.Latencies = append(report.Latencies, float64(s.latency.Microseconds()))
	}
	sort.Float64s(report.Latencies)

	if len(report.Latencies) == 0 {
		return report, ErrNoSuccessfulRequests
	}

	report.summarise()
	return report, ctx.Err()
}

func invokeOnce(ctx context.Context, inv invoke.Invoker, request []byte) sample {
	start := time.Now()
	raw, err := inv.Invoke(ctx, request)
	latency := time.Since(start)
	if err != nil {
		return sample{latency: latency, outcome: OutcomeError}
	}

	res, err := invoke.Decode(raw)
	if err != nil {
		return sample{latency: latency, outcome: OutcomeError}
	}
	if res.Output.OrderID == order.SentinelID {
		return sample{latency: latency, outcome: OutcomeFallback}
	}
	return sample{latency: latency, outcome: OutcomeOK}
}

func (r *Report) summarise() {
	l := r.Latencies
	r.Min = l[0]
	r.Max = l[len(l)-1]
	r.Avg = sum(l) / float64(len(l))
	r.P50 = percentile(l, 0.50)
	r.P95 = percentile(l, 0.95)
	r.P99 = percentile(l, 0.99)
	if secs := r.TotalTime.Seconds(); secs > 0 {
		r.RequestsPerSec = float64(r.Succeeded+r.Failed) / secs
	}
}

// percentile picks the nearest-rank sample from an ascending slice.
func percentile(sorted []float64, p float64) float64 {
	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func sum(nums []float64) float64 {
	total := 0.0
	for _, x := range nums {
		total += x
	}
	return total
}

// WriteCSV writes one row per sample: request_id,latency_us.
func WriteCSV(w io.Writer, latencies []float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"request_id", "latency_us"}); err != nil {
		return err
	}
	for i, l := range latencies {
		row := []string{strconv.Itoa(i + 1), strconv.FormatFloat(l, 'f', 2, 64)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
