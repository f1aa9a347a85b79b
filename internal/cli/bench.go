package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lacquerai/taxfn/internal/bench"
	"github.com/lacquerai/taxfn/internal/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// benchCmd replays one request against a handler under concurrency
var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark a handler with concurrent invocations",
	Long: `Send the same request to a handler many times from a pool of workers and
report throughput and latency percentiles.

Invocations answered with the fallback output still count as successful, they
are reported separately. Invocations that fail (subprocess crash, timeout,
unreadable response) are counted but contribute no latency sample.`,
	Example: `
  taxfn bench                                   # 1000 requests, 10 workers, in-process
  taxfn bench -n 5000 -c 50 --exec ./bin/handler
  taxfn bench --csv latencies.csv --metrics-file bench.prom`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := benchConfig()

		format := viper.GetString("output")
		showProgress := format == "text" && !viper.GetBool("quiet")

		var spin style.Spinner
		if showProgress {
			spin = style.NewSpinner(cmd.ErrOrStderr())
			spin.SetSuffix(fmt.Sprintf(" Benchmarking %s (%d requests, %d workers)", cfg.Name, cfg.Requests, cfg.Concurrency))
			cfg.OnProgress = progressReporter(spin, cfg.Requests)
			spin.Start()
		}

		report, err := bench.Run(commandContext(cmd), newInvoker("bench"), cfg)
		if spin != nil {
			spin.Stop()
		}
		if errors.Is(err, bench.ErrNoSuccessfulRequests) {
			style.Warning(cmd.ErrOrStderr(), fmt.Sprintf("No successful requests out of %d", cfg.Requests))
			return err
		}
		if err != nil {
			return err
		}

		if err := writeBenchArtifacts(report); err != nil {
			return err
		}

		switch format {
		case "json":
			style.PrintJSON(cmd.OutOrStdout(), report)
		case "yaml":
			style.PrintYAML(cmd.OutOrStdout(), report)
		default:
			printBenchText(cmd.OutOrStdout(), report)
		}
		return nil
	},
}

func init() {
	defaults := bench.DefaultConfig()

	benchCmd.Flags().IntP("requests", "n", defaults.Requests, "number of invocations")
	benchCmd.Flags().IntP("concurrency", "c", defaults.Concurrency, "number of concurrent workers")
	benchCmd.Flags().String("name", "", "label for the report (default: the --exec path or \"local\")")
	benchCmd.Flags().String("raw", "", "request envelope to replay (default: order {\"id\":\"1\",\"value\":100})")
	benchCmd.Flags().String("csv", "", "write every successful latency in microseconds to this CSV file")
	benchCmd.Flags().String("metrics-file", "", "write Prometheus metrics for the run to this textfile")
	addExecFlags(benchCmd)
	bindFlags(benchCmd, "bench")

	rootCmd.AddCommand(benchCmd)
}

func benchConfig() bench.Config {
	cfg := bench.DefaultConfig()
	cfg.Requests = viper.GetInt("bench.requests")
	cfg.Concurrency = viper.GetInt("bench.concurrency")

	cfg.Name = viper.GetString("bench.name")
	if cfg.Name == "" {
		cfg.Name = handlerName("bench")
	}

	if raw := viper.GetString("bench.raw"); raw != "" {
		cfg.Request = []byte(raw)
	}

	return cfg
}

// progressReporter updates the spinner suffix roughly every tenth of the run.
func progressReporter(spin style.Spinner, total int) func(done, total int) {
	step := total / 10
	if step == 0 {
		step = 1
	}
	return func(done, total int) {
		if done%step == 0 || done == total {
			spin.SetSuffix(fmt.Sprintf(" %d/%d requests", done, total))
		}
	}
}

func writeBenchArtifacts(report *bench.Report) error {
	if path := viper.GetString("bench.csv"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create csv file: %w", err)
		}
		if err := bench.WriteCSV(f, report.Latencies); err != nil {
			_ = f.Close()
			return fmt.Errorf("write csv file: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close csv file: %w", err)
		}
	}

	if path := viper.GetString("bench.metrics-file"); path != "" {
		if err := report.WriteMetrics(path); err != nil {
			return fmt.Errorf("write metrics file: %w", err)
		}
	}

	return nil
}

func printBenchText(w io.Writer, r *bench.Report) {
	fmt.Fprintf(w, "%s\n\n", style.TitleStyle.Render("Benchmark: "+r.Name))

	style.PrintTable(w, []string{"Metric", "Value"}, [][]string{
		{"Requests", fmt.Sprintf("%d", r.Requests)},
		{"Concurrency", fmt.Sprintf("%d", r.Concurrency)},
		{"Succeeded", fmt.Sprintf("%d", r.Succeeded)},
		{"Fallbacks", fmt.Sprintf("%d", r.Fallbacks)},
		{"Failed", fmt.Sprintf("%d", r.Failed)},
		{"Total time", fmt.Sprintf("%.2f ms", durationMillis(r.TotalTime))},
		{"Requests/sec", fmt.Sprintf("%.2f", r.RequestsPerSec)},
	})
	fmt.Fprintln(w)

	style.PrintTable(w, []string{"Latency", "µs"}, [][]string{
		{"min", fmt.Sprintf("%.2f", r.Min)},
		{"avg", fmt.Sprintf("%.2f", r.Avg)},
		{"p50", fmt.Sprintf("%.2f", r.P50)},
		{"p95", fmt.Sprintf("%.2f", r.P95)},
		{"p99", fmt.Sprintf("%.2f", r.P99)},
		{"max", fmt.Sprintf("%.2f", r.Max)},
	})
}
